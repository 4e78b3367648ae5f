package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParamsClamp(t *testing.T) {
	tests := []struct {
		name       string
		params     ListParams
		total      int
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{
			name:       "defaults applied",
			params:     ListParams{},
			total:      30,
			wantPage:   1,
			wantSize:   DefaultPageSize,
			wantOffset: 0,
		},
		{
			name:       "negative page snaps to first",
			params:     ListParams{Page: -4, PageSize: 10},
			total:      30,
			wantPage:   1,
			wantSize:   10,
			wantOffset: 0,
		},
		{
			name:       "page past the end snaps to last",
			params:     ListParams{Page: 9, PageSize: 10},
			total:      25,
			wantPage:   3,
			wantSize:   10,
			wantOffset: 20,
		},
		{
			name:       "exact last page untouched",
			params:     ListParams{Page: 3, PageSize: 10},
			total:      30,
			wantPage:   3,
			wantSize:   10,
			wantOffset: 20,
		},
		{
			name:       "empty catalog keeps page one",
			params:     ListParams{Page: 5, PageSize: 10},
			total:      0,
			wantPage:   1,
			wantSize:   10,
			wantOffset: 0,
		},
		{
			name:       "zero page size falls back to default",
			params:     ListParams{Page: 2, PageSize: 0},
			total:      100,
			wantPage:   2,
			wantSize:   DefaultPageSize,
			wantOffset: DefaultPageSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.params
			p.Clamp(tt.total)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

// Command seed-db loads a catalog fixture (categories, products, demo users)
// into the database. The fixture is a JSON file, optionally gzip-compressed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/storage/postgres"
)

type fixture struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
	Users      []userJSON     `json:"users"`
}

type categoryJSON struct {
	Name string `json:"name"`
}

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
	Color       string          `json:"color"`
	Size        string          `json:"size"`
}

type userJSON struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func main() {
	var (
		databaseURL string
		fixtureFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture-file", "db/seed/catalog.json", "path to catalog fixture (.json or .json.gz)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile string) error {
	fx, err := readFixture(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "read fixture")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCategories(ctx, pool, fx.Categories); err != nil {
		return errors.Wrap(err, "seed categories")
	}
	if err := seedProducts(ctx, pool, fx.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedUsers(ctx, pool, fx.Users); err != nil {
		return errors.Wrap(err, "seed users")
	}

	return nil
}

// readFixture reads and decodes the fixture file, transparently decompressing
// when the path ends in .gz.
func readFixture(path string) (*fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open fixture file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	var fx fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return nil, errors.Wrap(err, "parse fixture JSON")
	}
	return &fx, nil
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool, categories []categoryJSON) error {
	slog.Info("upserting categories", slog.Int("count", len(categories)))

	for _, c := range categories {
		if _, err := pool.Exec(ctx, `
			INSERT INTO categories (name)
			VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET is_active = TRUE`,
			c.Name,
		); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.Name)
		}
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, products []productJSON) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, `
			INSERT INTO products (name, description, category_id, price, stock, image, color, size)
			SELECT $1, $2, c.id, $3, $4, $5, $6, $7
			FROM categories c
			WHERE c.name = $8
			ON CONFLICT (category_id, name) DO UPDATE SET
				description = EXCLUDED.description,
				price       = EXCLUDED.price,
				stock       = EXCLUDED.stock,
				image       = EXCLUDED.image,
				color       = EXCLUDED.color,
				size        = EXCLUDED.size,
				is_active   = TRUE`,
			p.Name, p.Description, p.Price, p.Stock, p.Image, p.Color, p.Size, p.Category,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Name)
		}

		slog.Info("upserted product", slog.String("name", p.Name), slog.String("category", p.Category))
	}
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, users []userJSON) error {
	slog.Info("upserting users", slog.Int("count", len(users)))

	for _, u := range users {
		role := u.Role
		if role == "" {
			role = "Customer"
		}
		if _, err := pool.Exec(ctx, `
			INSERT INTO users (full_name, email, phone, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET
				full_name = EXCLUDED.full_name,
				phone     = EXCLUDED.phone,
				role      = EXCLUDED.role`,
			u.FullName, u.Email, u.Phone, role,
		); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.Email)
		}
	}
	return nil
}

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/storefront/internal/domain/identity"
)

const identityKey = "identity"

// Auth authenticates requests via HMAC-signed JWT bearer tokens. The token's
// "sub" claim carries the user id and "role" the access level; the core only
// ever sees the resulting identity.Identity.
type Auth struct {
	secret []byte
}

// NewAuth creates an Auth middleware with the given signing secret.
func NewAuth(secret []byte) *Auth {
	return &Auth{secret: secret}
}

// Require returns a middleware that rejects unauthenticated requests and,
// when roles are given, requests whose role is not among them. With no roles
// any authenticated user passes.
func (a *Auth) Require(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(c, "missing bearer token")
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		}, jwt.WithLeeway(30*time.Second)) // tolerate small clock skew
		if err != nil || !token.Valid {
			unauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "invalid token")
			return
		}

		ident, ok := identityFromClaims(claims)
		if !ok {
			unauthorized(c, "invalid token")
			return
		}

		if len(roles) > 0 && !roleAllowed(ident.Role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "insufficient role",
			})
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

func identityFromClaims(claims jwt.MapClaims) (identity.Identity, bool) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return identity.Identity{}, false
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return identity.Identity{}, false
	}

	roleClaim, _ := claims["role"].(string)
	role := identity.Role(roleClaim)
	if !role.Valid() {
		return identity.Identity{}, false
	}

	return identity.Identity{UserID: userID, Role: role}, true
}

func roleAllowed(role identity.Role, allowed []identity.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// currentIdentity returns the identity stored by Require. It is only valid
// on routes behind the middleware.
func currentIdentity(c *gin.Context) identity.Identity {
	ident, _ := c.MustGet(identityKey).(identity.Identity)
	return ident
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
}

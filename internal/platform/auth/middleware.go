package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Claims are the JWT claims issued by TokenIssuer.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// AccountLookup reports the stored role of an account. ok is false once
// the account has been deleted.
type AccountLookup func(ctx context.Context, id uuid.UUID) (role Role, ok bool, err error)

type JWTConfig struct {
	Issuer string
	// SigningKey is the HS256 secret shared with TokenIssuer.
	SigningKey []byte
	// Revocations, when set, rejects tokens whose jti was revoked at logout.
	Revocations RevocationStore
	// Accounts, when set, is consulted on every request: tokens of deleted
	// accounts are refused and the stored role replaces the token's.
	Accounts AccountLookup
	Skipper  echomw.Skipper
}

// JWTMiddleware authenticates the bearer token and stores the Actor and
// token metadata on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
			}

			actor, ok := actorFromClaims(claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
			}

			ctx := c.Request().Context()
			if cfg.Revocations != nil && claims.ID != "" {
				revoked, err := cfg.Revocations.IsRevoked(ctx, claims.ID)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "Server error").SetInternal(err)
				}
				if revoked {
					return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token revoked")
				}
			}

			if cfg.Accounts != nil {
				role, found, err := cfg.Accounts(ctx, actor.ID)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "Server error").SetInternal(err)
				}
				if !found {
					return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, user not found")
				}
				actor.Role = role
			}

			info := TokenInfo{JTI: claims.ID}
			if claims.ExpiresAt != nil {
				info.ExpiresAt = claims.ExpiresAt.Unix()
			}

			ctx = WithActor(ctx, actor)
			ctx = WithToken(ctx, info)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("user_id", actor.ID.String())

			return next(c)
		}
	}
}

func actorFromClaims(claims *Claims) (Actor, bool) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Actor{}, false
	}
	role := Role(claims.Role)
	if !role.Valid() {
		return Actor{}, false
	}
	return Actor{ID: id, Role: role}, true
}

// MustActor returns the authenticated actor or a 401 for handlers mounted
// behind JWTMiddleware.
func MustActor(c echo.Context) (Actor, error) {
	a, ok := ActorFromContext(c.Request().Context())
	if !ok {
		return Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "Not authorized")
	}
	return a, nil
}

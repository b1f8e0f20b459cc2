package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/clipix/backend/internal/apperror"
	"github.com/clipix/backend/internal/config"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Token verification failures are classified so handlers can answer with
// distinct messages.
var (
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the authenticated user id.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a short-lived access token.
func GenerateAccessToken(userID string, cfg *config.Config) (string, error) {
	return generateToken(userID, cfg.JWTAccessSecret, cfg.AccessTokenTTL)
}

// GenerateRefreshToken signs a long-lived refresh token with its own secret.
func GenerateRefreshToken(userID string, cfg *config.Config) (string, error) {
	return generateToken(userID, cfg.JWTRefreshSecret, cfg.RefreshTokenTTL)
}

func generateToken(userID, secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "clipix",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyAccessToken returns the user id encoded in the access token.
func VerifyAccessToken(tokenString string, cfg *config.Config) (string, error) {
	return verifyToken(tokenString, cfg.JWTAccessSecret)
}

// VerifyRefreshToken returns the user id encoded in the refresh token.
func VerifyRefreshToken(tokenString string, cfg *config.Config) (string, error) {
	return verifyToken(tokenString, cfg.JWTRefreshSecret)
}

func verifyToken(tokenString, secret string) (string, error) {
	if tokenString == "" {
		return "", ErrTokenMissing
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}

// AuthRequired protects routes behind the access-token cookie.
func AuthRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := VerifyAccessToken(c.Cookies(AccessTokenCookie), cfg)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenMissing):
				return apperror.New(fiber.StatusUnauthorized, "Token não fornecido")
			case errors.Is(err, ErrTokenExpired):
				return apperror.New(fiber.StatusUnauthorized, "Token expirado")
			default:
				return apperror.New(fiber.StatusUnauthorized, "Token inválido")
			}
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by AuthRequired.
func UserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("userID").(string)
	if !ok {
		return ""
	}
	return userID
}

// SetAuthCookies delivers a freshly issued token pair as HTTP-only cookies.
func SetAuthCookies(c *fiber.Ctx, cfg *config.Config, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(cfg.AccessTokenTTL.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(cfg.RefreshTokenTTL.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearAuthCookies removes both cookies. Issued tokens stay valid until
// natural expiry; there is no server-side revocation list.
func ClearAuthCookies(c *fiber.Ctx, cfg *config.Config) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

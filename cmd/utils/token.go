package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenLifetime is how long an issued token stays valid. There is no
// revocation list; role changes take effect on re-issue.
const TokenLifetime = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the self-contained session payload. Older tokens carry a plain
// is_admin flag instead of a role list; both forms verify.
type Claims struct {
	UserID      uint     `json:"user_id"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles,omitempty"`
	LegacyAdmin bool     `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	for _, r := range c.Roles {
		if r == "admin" || r == "super_admin" {
			return true
		}
	}
	return len(c.Roles) == 0 && c.LegacyAdmin
}

func secretKey() []byte {
	return []byte(os.Getenv("SECRET_KEY"))
}

// IssueToken signs a HS256 token for the user. The result is the usual
// three dot-joined base64 segments: header, payload, HMAC-SHA256 signature.
func IssueToken(userID uint, username string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// VerifyToken checks structure, signature and expiry. Any failure yields
// ErrInvalidToken; callers treat that as "not authenticated", never a crash.
func VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secretKey(), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

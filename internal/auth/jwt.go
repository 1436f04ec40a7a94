// File: internal/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mudly/realtime/internal/domain"
)

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("token expired")
	ErrInvalidToken   = errors.New("invalid token")
)

// Verifier validates HS256 access tokens and turns them into principals.
type Verifier struct {
	secretKey []byte
}

func NewVerifier(secretKey string) (*Verifier, error) {
	if secretKey == "" {
		return nil, errors.New("jwt secret key is required")
	}
	return &Verifier{secretKey: []byte(secretKey)}, nil
}

// Verify checks signature and expiry. The returned error always wraps one of
// the package sentinels.
func (v *Verifier) Verify(tokenString string) (domain.Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return domain.Principal{}, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secretKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Principal{}, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domain.Principal{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		default:
			return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	userID := subjectString(claims["sub"])
	if userID == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return domain.Principal{UserID: userID, Email: email, Role: role}, nil
}

// subjectString accepts both string and numeric subjects; numeric ids are
// decoded as float64 by encoding/json.
func subjectString(v interface{}) string {
	switch sub := v.(type) {
	case string:
		return strings.TrimSpace(sub)
	case float64:
		return strconv.FormatFloat(sub, 'f', -1, 64)
	default:
		return ""
	}
}

// Issuer signs access tokens with the same claim layout Verifier expects.
type Issuer struct {
	secretKey []byte
	now       func() time.Time
}

func NewIssuer(secretKey string) (*Issuer, error) {
	if secretKey == "" {
		return nil, errors.New("jwt secret key is required")
	}
	return &Issuer{secretKey: []byte(secretKey), now: time.Now}, nil
}

func (i *Issuer) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	if p.UserID == "" {
		return "", errors.New("user ID cannot be empty")
	}
	now := i.now()
	claims := jwt.MapClaims{
		"sub":   p.UserID,
		"email": p.Email,
		"role":  p.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secretKey)
}

// BearerToken extracts the credential presented at handshake. Browsers cannot
// set headers on a websocket upgrade, so the token query parameter is accepted
// as a fallback.
func BearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// IsExpired reports whether err came from an expired credential.
func IsExpired(err error) bool {
	return errors.Is(err, ErrExpiredToken)
}

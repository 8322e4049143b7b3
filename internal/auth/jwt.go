package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fathima-sithara/notification-service/internal/apperr"
)

// TokenValidator returns the user id carried by a valid access token.
type TokenValidator interface {
	Validate(tokenStr string) (string, error)
}

// JWTValidator checks HS256 or RS256 tokens issued by the auth service.
type JWTValidator struct {
	method string
	key    any
}

func NewHS256Validator(secret string) (*JWTValidator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTValidator{method: jwt.SigningMethodHS256.Alg(), key: []byte(secret)}, nil
}

func NewRS256Validator(publicKeyPath string) (*JWTValidator, error) {
	b, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, err
	}
	pub, err := ParseRSAPublicKey(b)
	if err != nil {
		return nil, err
	}
	return &JWTValidator{method: jwt.SigningMethodRS256.Alg(), key: pub}, nil
}

func ParseRSAPublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("failed to decode public key")
	}
	pubIfc, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := pubIfc.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not rsa public key")
	}
	return pub, nil
}

// Validate accepts a token signed with the configured method whose subject
// is in "sub" or "user_id". Tokens carrying a "type" claim other than
// "access" (refresh tokens) are rejected.
func (j *JWTValidator) Validate(tokenStr string) (string, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return j.key, nil
	}, jwt.WithValidMethods([]string{j.method}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return "", apperr.ErrUnauthorized
	}
	if typ, ok := claims["type"].(string); ok && typ != "access" {
		return "", fmt.Errorf("%w: token type %q", apperr.ErrUnauthorized, typ)
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID, nil
	}
	return "", fmt.Errorf("%w: token has no subject", apperr.ErrUnauthorized)
}

func ParseBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header empty")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/truongngoctrac/claims-platform/internal/model"
)

type JWTService interface {
	GenerateAccessToken(actor model.Actor, ttl time.Duration) (string, error)
	ValidateToken(token string) (model.Actor, error)
}

// Claims are the token claims the API understands. The subject carries the
// user ID.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

type hmacService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTService(secret, issuer string) JWTService {
	return &hmacService{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (s *hmacService) GenerateAccessToken(actor model.Actor, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *hmacService) ValidateToken(tokenString string) (model.Actor, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return model.Actor{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return model.Actor{}, fmt.Errorf("invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, fmt.Errorf("invalid subject: %w", err)
	}
	if !claims.Role.Valid() {
		return model.Actor{}, fmt.Errorf("invalid role %q", claims.Role)
	}
	return model.Actor{ID: id, Role: claims.Role}, nil
}

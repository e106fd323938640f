package service

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"example.com/storefront/internal/model"
)

// Identity is what the HTTP edge learns about a caller from a token.
type Identity struct {
	UserID uint
	Email  string
	Role   model.Role
}

type AuthService interface {
	Issue(user *model.User) (string, error)
	Parse(token string) (Identity, error)
}

type authService struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthService(secret string, ttl time.Duration) AuthService {
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &authService{secret: []byte(secret), ttl: ttl}
}

func (s *authService) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *authService) Parse(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, Errorf(KindUnauthorized, "unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, Errorf(KindUnauthorized, "invalid or expired token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, Errorf(KindUnauthorized, "invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, Errorf(KindUnauthorized, "invalid token subject")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return Identity{UserID: uint(id), Email: email, Role: model.Role(role)}, nil
}

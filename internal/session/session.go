package session

import (
	"errors"
	"fmt"
	"time"

	"genielearn-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the verified result of resolving a session credential.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// Validator resolves an opaque session credential into an Identity. The chat
// gateway and the HTTP middleware never inspect the credential themselves.
type Validator interface {
	Validate(token string) (*Identity, error)
}

// Manager issues and validates signed session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

func (m *Manager) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Validate(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	return &Identity{UserID: userID, Name: name, Email: email}, nil
}

package session

import (
	"testing"
	"time"

	"genielearn-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	user := &models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}

	token, err := m.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ident, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.UserID)
	assert.Equal(t, "Alice", ident.Name)
	assert.Equal(t, "alice@example.com", ident.Email)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Validate(token)
		assert.ErrorIs(t, err, ErrUnauthenticated, "token %q", token)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-one", time.Hour)
	verifier := NewManager("secret-two", time.Hour)

	token, err := issuer.Issue(&models.User{ID: "u1", Name: "Alice"})
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	token, err := m.Issue(&models.User{ID: "u1", Name: "Alice"})
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := jwt.Generate("secreto", "admin@localhost", "admin", "test", 5)
	require.NoError(t, err)

	userID, role, err := jwt.Parse("secreto", tok)
	require.NoError(t, err)
	assert.Equal(t, "admin@localhost", userID)
	assert.Equal(t, "admin", role)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := jwt.Generate("secreto", "u1", "admin", "test", 5)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otro-secreto", tok)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := jwt.Generate("secreto", "u1", "admin", "test", -1)
	require.NoError(t, err)

	_, _, err = jwt.Parse("secreto", tok)
	assert.Error(t, err)
}

func TestGenerate_SinSecret(t *testing.T) {
	_, err := jwt.Generate("", "u1", "admin", "test", 5)
	assert.Error(t, err)
}

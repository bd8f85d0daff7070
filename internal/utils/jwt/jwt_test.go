package jwt

import (
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret"

func TestCreateAndExtract(t *testing.T) {
	token, err := CreateToken("user-42", testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ExtractUserIDFromToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestExtractWrongSecret(t *testing.T) {
	token, err := CreateToken("user-42", testSecret)
	require.NoError(t, err)

	_, err = ExtractUserIDFromToken(token, "other_secret")
	assert.Error(t, err)
}

func TestExtractGarbage(t *testing.T) {
	_, err := ExtractUserIDFromToken("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestExtractMissingUserID(t *testing.T) {
	claims := gojwt.MapClaims{"role": "admin"}
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ExtractUserIDFromToken(signed, testSecret)
	assert.Error(t, err)
}

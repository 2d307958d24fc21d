package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
)

var (
	jwtService = NewJWTService("test-signing-key-0123456789", "test-issuer")
	userID     = id.UserID(uuid.New())
	sessionID  = id.SessionID(uuid.New())
	expiresIn  = time.Hour
)

func Test_GenerateToken(t *testing.T) {
	signed, expires, err := jwtService.GenerateToken(userID, sessionID, "Chrome on macOS", expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.WithinDuration(t, time.Now().Add(expiresIn), expires, time.Minute)

	claims, err := jwtService.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "Chrome on macOS", claims.Device)
	assert.Equal(t, "test-issuer", claims.Issuer)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid token", dErrors.MessageOf(err))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	signed, _, err := jwtService.GenerateToken(userID, sessionID, "", -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "token has expired", dErrors.MessageOf(err))
}

func Test_ValidateToken_WrongKeyOrIssuer(t *testing.T) {
	signed, _, err := NewJWTService("another-signing-key-0123456789", "test-issuer").GenerateToken(userID, sessionID, "", expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	signed, _, err = NewJWTService("test-signing-key-0123456789", "someone-else").GenerateToken(userID, sessionID, "", expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: userID.String(), SessionID: sessionID.String()})
	signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_MiddlewareAdapter(t *testing.T) {
	signed, _, err := jwtService.GenerateToken(userID, sessionID, "", expiresIn)
	require.NoError(t, err)

	claims, err := NewMiddlewareAdapter(jwtService).ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, sessionID, claims.SessionID)

	_, err = ToMiddlewareClaims(&Claims{UserID: "not-a-uuid", SessionID: sessionID.String()})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test-signing-key"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestHMACValidator_ValidToken(t *testing.T) {
	v := NewHMACValidator(testSigningKey)
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSigningKey), jwt.MapClaims{
		"institution_id": "inst-1",
		"client_id":      "client-1",
		"exp":            time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "inst-1", claims.InstitutionID)
	assert.Equal(t, "client-1", claims.ClientID)
}

func TestHMACValidator_WrongKey(t *testing.T) {
	v := NewHMACValidator(testSigningKey)
	token := signToken(t, jwt.SigningMethodHS256, []byte("other-key"), jwt.MapClaims{
		"institution_id": "inst-1",
		"exp":            time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.ValidateToken(token)
	assert.Error(t, err)
}

func TestHMACValidator_ExpiredToken(t *testing.T) {
	v := NewHMACValidator(testSigningKey)
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSigningKey), jwt.MapClaims{
		"institution_id": "inst-1",
		"exp":            time.Now().Add(-time.Hour).Unix(),
	})

	_, err := v.ValidateToken(token)
	assert.Error(t, err)
}

func TestHMACValidator_RejectsUnsignedToken(t *testing.T) {
	v := NewHMACValidator(testSigningKey)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"institution_id": "inst-1",
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.ValidateToken(signed)
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	v := NewHMACValidator(testSigningKey)
	var gotInstitution string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotInstitution = GetInstitutionID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireAuth(v, nil)(next)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSigningKey), jwt.MapClaims{
			"institution_id": "inst-9",
			"exp":            time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "inst-9", gotInstitution)
	})
}

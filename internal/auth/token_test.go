package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(testSecret, "HS256", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return svc
}

func TestNewJWTService_RejectsBadConfig(t *testing.T) {
	_, err := NewJWTService(nil, "HS256", time.Minute, time.Hour)
	assert.Error(t, err, "empty secret must be rejected")

	_, err = NewJWTService(testSecret, "RS256", time.Minute, time.Hour)
	assert.Error(t, err, "non-HMAC algorithm must be rejected")

	_, err = NewJWTService(testSecret, "none", time.Minute, time.Hour)
	assert.Error(t, err)

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		_, err := NewJWTService(testSecret, alg, time.Minute, time.Hour)
		assert.NoError(t, err, alg)
	}
}

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()

	token, err := svc.Issue(userID, TokenKindAccess)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, TokenKindAccess, claims.Kind)

	got, err := svc.VerifySubject(token, TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTService_KindMismatch(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()

	refresh, err := svc.Issue(userID, TokenKindRefresh)
	require.NoError(t, err)

	_, err = svc.VerifySubject(refresh, TokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token must not pass as access token")

	access, err := svc.Issue(userID, TokenKindAccess)
	require.NoError(t, err)

	_, err = svc.VerifySubject(access, TokenKindRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Expiry(t *testing.T) {
	svc := newTestJWTService(t)

	issued := time.Now()
	svc.now = func() time.Time { return issued }

	token, err := svc.Issue(uuid.New(), TokenKindAccess)
	require.NoError(t, err)

	// Still valid just before the 15 minute lifetime elapses
	svc.now = func() time.Time { return issued.Add(14 * time.Minute) }
	_, err = svc.Verify(token)
	assert.NoError(t, err)

	// Invalid once the lifetime has elapsed
	svc.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_TamperedToken(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.Issue(uuid.New(), TokenKindAccess)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	svc := newTestJWTService(t)

	other, err := NewJWTService([]byte("a completely different secret!!!"), "HS256", time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := other.Issue(uuid.New(), TokenKindAccess)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_AlgorithmConfusion(t *testing.T) {
	// A token signed with HS512 must be rejected by a service configured
	// for HS256 even though both share the secret.
	hs256, err := NewJWTService(testSecret, "HS256", time.Minute, time.Hour)
	require.NoError(t, err)
	hs512, err := NewJWTService(testSecret, "HS512", time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := hs512.Issue(uuid.New(), TokenKindAccess)
	require.NoError(t, err)

	_, err = hs256.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = hs512.Verify(token)
	assert.NoError(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	return NewManager("test-secret", hash, time.Hour, time.Hour)
}

func TestUserToken(t *testing.T) {
	m := newTestManager(t)
	userID := NewUserID()
	_, err := uuid.Parse(userID)
	require.NoError(t, err, "User ID should be a UUID")

	token, err := m.IssueUserToken(userID)
	require.NoError(t, err)

	parsed, err := m.ParseUserToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)

	// Токен администратора не подходит как пользовательский
	adminToken, err := m.IssueAdminToken()
	require.NoError(t, err)
	_, err = m.ParseUserToken(adminToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseUserToken_Invalid(t *testing.T) {
	m := newTestManager(t)
	other := NewManager("other-secret", nil, time.Hour, time.Hour)
	foreign, err := other.IssueUserToken(NewUserID())
	require.NoError(t, err)

	expired := newTestManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := expired.IssueUserToken(NewUserID())
	require.NoError(t, err)

	notUUID, err := m.IssueUserToken("not-a-uuid")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleUser})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"foreign secret", foreign},
		{"expired", stale},
		{"subject is not uuid", notUUID},
		{"none algorithm", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ParseUserToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAdmin(t *testing.T) {
	m := newTestManager(t)

	assert.ErrorIs(t, m.CheckPassword("wrong"), ErrInvalidPassword)
	require.NoError(t, m.CheckPassword("s3cret"))

	token, err := m.IssueAdminToken()
	require.NoError(t, err)
	assert.NoError(t, m.VerifyAdminToken(token))

	userToken, err := m.IssueUserToken(NewUserID())
	require.NoError(t, err)
	assert.ErrorIs(t, m.VerifyAdminToken(userToken), ErrInvalidToken)
	assert.ErrorIs(t, m.VerifyAdminToken(""), ErrInvalidToken)

	disabled := NewManager("test-secret", nil, time.Hour, time.Hour)
	assert.ErrorIs(t, disabled.CheckPassword("s3cret"), ErrAdminDisabled)
}

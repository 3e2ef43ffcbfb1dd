package appstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     "marina",
		"user_id": 7,
		"exp":     exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestOpenMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.yaml"))
	require.NoError(t, err)

	_, err = s.Token()
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, s.DarkMode())
}

func TestTokenLifecyclePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	s, err := Open(path)
	require.NoError(t, err)

	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, s.SetToken(token))
	require.NoError(t, s.SetDarkMode(true))

	reopened, err := Open(path)
	require.NoError(t, err)
	got, err := reopened.Token()
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.True(t, reopened.DarkMode())

	claims, err := reopened.Claims()
	require.NoError(t, err)
	assert.Equal(t, "marina", claims.Subject)
	assert.Equal(t, int64(7), claims.UserID)

	require.NoError(t, reopened.Clear())
	_, err = reopened.Token()
	assert.ErrorIs(t, err, ErrUnauthenticated)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCheckToken(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"empty", "", true},
		{"garbage", "not-a-jwt", true},
		{"expired", signedToken(t, now.Add(-time.Minute)), true},
		{"valid", signedToken(t, now.Add(time.Minute)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckToken(tt.token, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthenticated)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetTokenRejectsMalformed(t *testing.T) {
	s := NewMemory()
	assert.ErrorIs(t, s.SetToken("abc"), ErrUnauthenticated)
}

func TestSubscribe(t *testing.T) {
	s := NewMemory()

	var changes []Change
	unsubscribe := s.Subscribe(func(c Change) { changes = append(changes, c) })

	on, err := s.ToggleDarkMode()
	require.NoError(t, err)
	assert.True(t, on)
	require.NoError(t, s.Clear())

	unsubscribe()
	_, _ = s.ToggleDarkMode()

	require.Len(t, changes, 2)
	assert.Equal(t, Change{DarkMode: true}, changes[0])
	assert.Equal(t, Change{Token: true}, changes[1])
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unclosed"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}

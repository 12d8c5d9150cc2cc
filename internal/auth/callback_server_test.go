package auth

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func startCallback(t *testing.T) (*CallbackServer, string) {
	t.Helper()
	s := NewCallbackServer(0, "state-1", zap.NewNop())
	url, err := s.Listen()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s, url
}

func TestCallbackDeliversCode(t *testing.T) {
	s, url := startCallback(t)

	resp, err := http.Get(url + "?code=abc&state=state-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	code, err := s.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", code)
}

func TestCallbackRejectsWrongState(t *testing.T) {
	s, url := startCallback(t)

	resp, err := http.Get(url + "?code=abc&state=other")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = s.Wait(ctx)
	assert.ErrorContains(t, err, "state mismatch")
}

func TestCallbackReportsProviderError(t *testing.T) {
	s, url := startCallback(t)

	resp, err := http.Get(url + "?error=access_denied&state=state-1")
	require.NoError(t, err)
	resp.Body.Close()

	_, err = s.Wait(context.Background())
	assert.ErrorContains(t, err, "access_denied")
}

func TestSaveToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	require.NoError(t, saveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildfire/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("EVENTS_BACKEND", "none")
	t.Setenv("OPENWEATHER_KEY", "")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.SecretKey = "test-secret"
	cfg.ModelDir = filepath.Join("..", "..", "model")
	return cfg
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_RequiresSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.SecretKey = ""

	_, err := New(context.Background(), cfg, discard(), clockwork.NewFakeClock())
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestNew_LoadsModels(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), discard(), clockwork.NewFakeClock())
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.Risk.Available())
	assert.True(t, a.Manual.Available())
}

func TestNew_MissingModelsDegrade(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModelDir = t.TempDir()

	a, err := New(context.Background(), cfg, discard(), clockwork.NewFakeClock())
	require.NoError(t, err)
	defer a.Close()
	assert.False(t, a.Risk.Available())

	req := httptest.NewRequest(http.MethodPost, "/admin/test-scan-nepal", nil)
	w := httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestEnsureAdmin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.AdminEmail = "admin@example.com"
	cfg.Auth.AdminPassword = "s3cret"

	a, err := New(context.Background(), cfg, discard(), clockwork.NewFakeClock())
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.EnsureAdmin(ctx))
	require.NoError(t, a.EnsureAdmin(ctx))

	session, err := a.Auth.AdminLogin(ctx, "admin@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Role)
}

func TestEnsureAdmin_NotConfigured(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), discard(), clockwork.NewFakeClock())
	require.NoError(t, err)
	defer a.Close()

	assert.NoError(t, a.EnsureAdmin(context.Background()))
}

func TestTimeouts(t *testing.T) {
	cfg := testConfig(t)
	a := &App{Config: cfg}

	to := a.Timeouts()
	assert.Equal(t, cfg.Server.ReadTimeout, to.Read)
	assert.Equal(t, 2*cfg.Server.ReadTimeout, to.Idle)
	assert.Equal(t, cfg.Server.ShutdownTimeout, to.Shutdown)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:5001/api", cfg.Remote.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, int64(1), cfg.Remote.UserID)
	assert.Equal(t, "300", cfg.Checkout.CourierSurcharge.String())
	assert.Equal(t, 2*time.Second, cfg.Checkout.RedirectDelay)
	assert.Equal(t, 8, cfg.Catalog.PerPage)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, HostEmbedded, cfg.Widget.HostMode)
	assert.Equal(t, "http://localhost:5000/api", cfg.Widget.APIURL)
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("API_BASE_URL", "http://store.test/api/")
	t.Setenv("COURIER_SURCHARGE", "450")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("WIDGET_HOST_MODE", HostStandalone)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://store.test/api", cfg.Remote.BaseURL)
	assert.Equal(t, "450", cfg.Checkout.CourierSurcharge.String())
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, HostStandalone, cfg.Widget.HostMode)
}

func TestLoadRejectsBadValues(t *testing.T) {
	chdirTemp(t)

	t.Setenv("STORAGE_DRIVER", "redis")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("HTTP_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadWidgetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://assistant.test/api
host_mode: standalone
popular_limit: 5
standalone:
  url: /catalog
`), 0644))

	wc, err := LoadWidget(path)
	require.NoError(t, err)
	assert.Equal(t, "http://assistant.test/api", wc.APIURL)
	assert.Equal(t, HostStandalone, wc.HostMode)
	assert.Equal(t, 5, wc.PopularLimit)
	assert.Equal(t, "/catalog", wc.Standalone.URL)
	assert.Equal(t, 1280, wc.Standalone.ViewportWidth)
	assert.Equal(t, "bottom-right", wc.Position)
}

func TestParseWidgetRejectsUnknownHost(t *testing.T) {
	_, err := ParseWidget([]byte("host_mode: iframe"))
	assert.Error(t, err)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/config"
)

func newTestStorage(t *testing.T, baseURL string) *Storage {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.Region = "us-east-1"
	cfg.Storage.AccessKey = "access"
	cfg.Storage.SecretKey = "secret"
	cfg.Storage.Bucket = "marketplace"
	cfg.Storage.BaseURL = baseURL
	cfg.Storage.Endpoint = "http://localhost:9000"

	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey(42, KindBanner, "Shop Banner.PNG")
	assert.Regexp(t, regexp.MustCompile(`^stores/42/banner/[0-9a-f-]{36}\.png$`), key)

	other := ObjectKey(42, KindBanner, "Shop Banner.PNG")
	assert.NotEqual(t, key, other)

	assert.Regexp(t, regexp.MustCompile(`^stores/7/product/[0-9a-f-]{36}$`), ObjectKey(7, KindProduct, "noext"))
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"banner", "logo", "product"} {
		k, ok := ParseKind(s)
		assert.True(t, ok)
		assert.Equal(t, Kind(s), k)
	}

	_, ok := ParseKind("avatar")
	assert.False(t, ok)
}

func TestKeyFromURL(t *testing.T) {
	s := newTestStorage(t, "https://cdn.example.com/marketplace/")

	url := s.PublicURL("stores/1/logo/abc.png")
	assert.Equal(t, "https://cdn.example.com/marketplace/stores/1/logo/abc.png", url)

	key, ok := s.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "stores/1/logo/abc.png", key)

	_, ok = s.KeyFromURL("https://images.example.org/stores/1/logo/abc.png")
	assert.False(t, ok)

	_, ok = s.KeyFromURL("https://cdn.example.com/marketplace/")
	assert.False(t, ok)
}

func TestDefaultBaseURL(t *testing.T) {
	s := newTestStorage(t, "")
	assert.Equal(t, "https://marketplace/stores/1/logo/a.png", s.PublicURL("stores/1/logo/a.png"))
}

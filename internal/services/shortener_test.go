package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"apexearn/internal/models"

	"github.com/stretchr/testify/require"
)

func newTestShortener(t *testing.T, handler http.HandlerFunc) *ServiceShortener {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := NewServiceShortener(map[models.Provider]ShortenerProvider{
		models.ProviderGPLinks: {APIURL: srv.URL, APIKey: "test-key"},
	})
	require.NoError(t, err)

	return service
}

func TestShorten(t *testing.T) {
	service := newTestShortener(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("api"))
		require.Equal(t, "https://example.com/offer", r.URL.Query().Get("url"))
		//nolint:errcheck
		w.Write([]byte(`{"shortenedUrl":"https://gpl.ink/abc"}`))
	})

	short := service.Shorten(context.Background(), "https://example.com/offer", models.ProviderGPLinks)
	require.Equal(t, "https://gpl.ink/abc", short)
}

func TestShortenAltResponseKey(t *testing.T) {
	service := newTestShortener(t, func(w http.ResponseWriter, r *http.Request) {
		//nolint:errcheck
		w.Write([]byte(`{"short":"https://shrinkme.io/xyz"}`))
	})

	short := service.Shorten(context.Background(), "https://example.com/offer", models.ProviderGPLinks)
	require.Equal(t, "https://shrinkme.io/xyz", short)
}

func TestShortenFallsBackOnServerError(t *testing.T) {
	service := newTestShortener(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	short := service.Shorten(context.Background(), "https://example.com/offer", models.ProviderGPLinks)
	require.Equal(t, "https://example.com/offer", short)
}

func TestShortenFallsBackOnUnrecognizedBody(t *testing.T) {
	service := newTestShortener(t, func(w http.ResponseWriter, r *http.Request) {
		//nolint:errcheck
		w.Write([]byte(`{"status":"ok"}`))
	})

	short := service.Shorten(context.Background(), "https://example.com/offer", models.ProviderGPLinks)
	require.Equal(t, "https://example.com/offer", short)
}

func TestShortenFallsBackWithoutCredentials(t *testing.T) {
	service, err := NewServiceShortener(map[models.Provider]ShortenerProvider{})
	require.NoError(t, err)

	short := service.Shorten(context.Background(), "https://example.com/offer", models.ProviderShrinkEarn)
	require.Equal(t, "https://example.com/offer", short)
}

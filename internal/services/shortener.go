package services

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"apexearn/internal/models"

	"github.com/gojek/heimdall/v7/httpclient"
)

// ShortenerProvider holds one vendor's endpoint and API key. All three
// vendors share the same calling convention: GET ?api=KEY&url=URL.
type ShortenerProvider struct {
	APIURL string
	APIKey string
}

type ServiceShortener struct {
	client    *httpclient.Client
	providers map[models.Provider]ShortenerProvider
}

func NewServiceShortener(providers map[models.Provider]ShortenerProvider) (*ServiceShortener, error) {
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(10*time.Second),
		httpclient.WithRetryCount(2),
	)
	return &ServiceShortener{client, providers}, nil
}

type shortenResponse struct {
	// vendors disagree on the field name
	ShortenedURL string `json:"shortenedUrl"`
	Short        string `json:"short"`
}

// Shorten never fails the caller: on missing credentials, transport errors
// or an unrecognized response it returns the original url unchanged.
func (service *ServiceShortener) Shorten(ctx context.Context, originalURL string, provider models.Provider) string {
	cfg, ok := service.providers[provider]
	if !ok || cfg.APIKey == "" || cfg.APIURL == "" {
		return originalURL
	}

	endpoint, err := url.Parse(cfg.APIURL)
	if err != nil {
		return originalURL
	}

	query := endpoint.Query()
	query.Set("api", cfg.APIKey)
	query.Set("url", originalURL)
	endpoint.RawQuery = query.Encode()

	res, err := service.client.Get(endpoint.String(), http.Header{})
	if err != nil {
		log.Println("Shorten failed:", err, "provider:", provider)
		return originalURL
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.Println("Shorten failed:", res.Status, "provider:", provider)
		return originalURL
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return originalURL
	}

	var parsed shortenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return originalURL
	}

	if parsed.ShortenedURL != "" {
		return parsed.ShortenedURL
	}
	if parsed.Short != "" {
		return parsed.Short
	}

	return originalURL
}

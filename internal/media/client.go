// Package media talks to the media store service that holds image bytes.
// This service keeps only image metadata; when recipes go away the backing
// assets must be released here.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tastebase/recipe-service/internal/domain"
	"github.com/tastebase/recipe-service/pkg/httpclient"
)

// Client releases stored assets via the media store HTTP API. Calls go
// through a circuit breaker so a down media store cannot stall deletes;
// release failures are logged and retried out of band, never surfaced to
// the caller of a recipe delete.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// NewClient creates a media store client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	base := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("media-store"), logger)
	return &Client{
		baseURL: baseURL,
		http:    cb,
		logger:  logger,
	}
}

// ReleaseAsset deletes a single asset by filename.
func (c *Client) ReleaseAsset(ctx context.Context, filename string) error {
	endpoint := fmt.Sprintf("%s/internal/assets/%s", c.baseURL, url.PathEscape(filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build release request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("release asset %q: %w", filename, err)
	}
	defer resp.Body.Close()

	// 404 means the asset is already gone, which is the desired state.
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return httpclient.ParseResponseError(resp, "media-store")
	}

	return nil
}

// ReleaseImages releases every asset behind the given image records. It
// keeps going on individual failures and logs them; the database rows are
// already gone by the time this runs.
func (c *Client) ReleaseImages(ctx context.Context, images []domain.RecipeImage) {
	for _, img := range images {
		if err := c.ReleaseAsset(ctx, img.Filename); err != nil {
			c.logger.ErrorContext(ctx, "failed to release media asset",
				slog.String("recipe_id", img.RecipeID),
				slog.String("filename", img.Filename),
				slog.String("error", err.Error()),
			)
		}
	}
}

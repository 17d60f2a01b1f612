package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ImageStore removes uploaded images from the external blob service. Uploads
// happen elsewhere; this service only bookkeeps URLs and deletes them when
// their owning rows go away.
type ImageStore interface {
	Remove(ctx context.Context, publicURL string) error
}

// BlobClient deletes objects from the blob service over HTTP.
type BlobClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewBlobClient constructs a blob client. An empty baseURL yields a no-op
// client, for deployments without a blob store configured.
func NewBlobClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *BlobClient {
	return &BlobClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Remove deletes the object behind a public URL.
func (c *BlobClient) Remove(ctx context.Context, publicURL string) error {
	if c.baseURL == "" {
		return nil
	}
	path, err := ObjectPath(publicURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/objects/"+path, nil)
	if err != nil {
		return fmt.Errorf("build blob delete: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("blob delete: %w", err)
	}
	defer resp.Body.Close()

	// Already-gone objects are fine; the row referencing them is deleted.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("blob delete %s: status %d", path, resp.StatusCode)
	}
	return nil
}

// ObjectPath extracts the storage object path from a public image URL.
func ObjectPath(publicURL string) (string, error) {
	parsed, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	if idx := strings.Index(path, "objects/"); idx >= 0 {
		path = path[idx+len("objects/"):]
	}
	if path == "" {
		return "", fmt.Errorf("image url %q has no object path", publicURL)
	}
	return path, nil
}

package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
)

// fetchImageBase64 downloads an image from a provider-hosted URL and
// re-encodes the bytes to base64.
func fetchImageBase64(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create image fetch request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image fetch failed (status %d)", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image bytes: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

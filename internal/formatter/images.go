package formatter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// maxImageBytes bounds a cover download.
const maxImageBytes = 10 << 20

// DownloadImage fetches an image and returns its bytes with the file extension detected from its content.
//
// Content that does not sniff as an image is rejected, whatever the server's Content-Type says.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, "", fmt.Errorf("unexpected content type %s", mime.String())
	}
	return data, mime.Extension(), nil
}

// SaveCover downloads url into dir/base{ext} on fs and returns the written path.
func SaveCover(ctx context.Context, fs afero.Fs, client *http.Client, url, dir, base string) (string, error) {
	data, ext, err := DownloadImage(ctx, client, url)
	if err != nil {
		return "", err
	}

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	path := filepath.Join(dir, base+ext)
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save cover image: %w", err)
	}
	return path, nil
}

package docgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/relaw/case-intake/pkg/logger"
)

const dropboxUploadURL = "https://content.dropboxapi.com/2/files/upload"

// BackupClient uploads generated documents to a Dropbox-style content
// endpoint for cloud backup. Disabled unless explicitly configured.
type BackupClient struct {
	enabled     bool
	accessToken string
	basePath    string
	uploadURL   string
	client      *http.Client
	logger      *logger.Logger
}

func NewBackupClient(enabled bool, accessToken, basePath string, log *logger.Logger) *BackupClient {
	if enabled && accessToken == "" {
		log.Warn("Cloud backup enabled but no access token configured, uploads will fail")
	}
	return &BackupClient{
		enabled:     enabled,
		accessToken: accessToken,
		basePath:    basePath,
		uploadURL:   dropboxUploadURL,
		client:      &http.Client{Timeout: 60 * time.Second},
		logger:      log,
	}
}

// Enabled reports whether uploads are configured.
func (c *BackupClient) Enabled() bool {
	return c.enabled
}

// Upload stores document bytes under basePath/relPath, overwriting any
// existing file.
func (c *BackupClient) Upload(ctx context.Context, relPath string, document []byte) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("cloud backup is disabled")
	}
	if c.accessToken == "" {
		return "", fmt.Errorf("cloud backup access token not configured")
	}

	fullPath := path.Join(c.basePath, relPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", fmt.Sprintf(`{"path": %q, "mode": "overwrite", "mute": true}`, fullPath))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("backup service returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Info("Document uploaded to backup", "path", fullPath, "size", len(document))
	return fullPath, nil
}

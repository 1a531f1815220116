package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/relaw/case-intake/pkg/logger"
)

// RenderClient talks to a Docmosis-style template rendering service:
// POST the merged data, get the rendered document bytes back.
type RenderClient struct {
	apiURL    string
	accessKey string
	retries   int
	client    *http.Client
	logger    *logger.Logger
}

func NewRenderClient(apiURL, accessKey string, timeout time.Duration, retries int, log *logger.Logger) *RenderClient {
	if retries < 1 {
		retries = 1
	}
	return &RenderClient{
		apiURL:    apiURL,
		accessKey: accessKey,
		retries:   retries,
		client:    &http.Client{Timeout: timeout},
		logger:    log,
	}
}

type renderRequest struct {
	TemplateName string                 `json:"templateName"`
	OutputName   string                 `json:"outputName"`
	OutputFormat string                 `json:"outputFormat"`
	Data         map[string]interface{} `json:"data"`
	AccessKey    string                 `json:"accessKey,omitempty"`
}

// Render merges data into the named template and returns the document
// bytes. Retries transient failures up to the configured attempt count.
func (c *RenderClient) Render(ctx context.Context, templateName, outputName string, data map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(renderRequest{
		TemplateName: templateName,
		OutputName:   outputName,
		OutputFormat: "pdf",
		Data:         data,
		AccessKey:    c.accessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode render request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		document, err := c.renderOnce(ctx, payload)
		if err == nil {
			return document, nil
		}
		lastErr = err
		c.logger.Warn("Render attempt failed",
			"template", templateName,
			"attempt", attempt,
			"error", err,
		)
		if attempt == c.retries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	return nil, fmt.Errorf("render failed after %d attempts: %w", c.retries, lastErr)
}

func (c *RenderClient) renderOnce(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read render response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service returned %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

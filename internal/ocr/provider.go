// Package ocr wraps the external OCR service used to pre-fill identity
// fields from a photographed card. The provider is advisory only: a
// failed or partial extraction never blocks record creation.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrCaptureFailed classifies any camera/OCR failure. It is recoverable
// via manual entry.
var ErrCaptureFailed = errors.New("ocr: capture failed")

// CardData holds the structured fields extracted from an identity card.
// Any field may be empty; callers fall back to manual entry for missing
// required fields.
type CardData struct {
	IdentityNumber string `json:"number"`
	Name           string `json:"name"`
	DateOfBirth    string `json:"dob"`
	Gender         string `json:"gender"`
	Address        string `json:"address"`
	RawText        string `json:"raw_text"`
}

// Provider extracts identity fields from a card image.
type Provider interface {
	Extract(ctx context.Context, image []byte) (*CardData, error)
}

// HTTPProvider talks to the hosted OCR endpoint.
type HTTPProvider struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPProvider creates a provider for the given OCR endpoint.
func NewHTTPProvider(endpoint, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPProvider{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
	}
}

type extractResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	CardData
}

// Extract posts the raw image bytes to the OCR service and decodes the
// structured result.
func (p *HTTPProvider) Extract(ctx context.Context, image []byte) (*CardData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrCaptureFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ocr service returned %d", ErrCaptureFailed, resp.StatusCode)
	}

	var out extractResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCaptureFailed, err)
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = "extraction failed"
		}
		return nil, fmt.Errorf("%w: %s", ErrCaptureFailed, out.Error)
	}
	data := out.CardData
	return &data, nil
}

package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"sahayak-agent/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUploadFailed classifies a per-item network or server failure. The
// item stays pending for the next reconciliation pass.
var ErrUploadFailed = errors.New("syncer: upload failed")

// Uploader pushes one queued record to the remote system of record. The
// remote endpoint is idempotent on the client-supplied item id, so a
// retry after a dropped response cannot create a duplicate.
type Uploader interface {
	Upload(ctx context.Context, item models.SyncQueueItem) error
}

// HTTPUploader posts queue items to the backend sync endpoint,
// authenticating with a short-lived device-attestation JWT signed with
// the device secret provisioned at enrollment.
type HTTPUploader struct {
	BaseURL      string
	DeviceID     string
	deviceSecret []byte
	Client       *http.Client
}

func NewHTTPUploader(baseURL, deviceID, deviceSecret string) *HTTPUploader {
	return &HTTPUploader{
		BaseURL:      baseURL,
		DeviceID:     deviceID,
		deviceSecret: []byte(deviceSecret),
		Client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, item models.SyncQueueItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("%w: marshal item %s: %v", ErrUploadFailed, item.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.BaseURL+"/api/v1/sync/records", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := u.deviceToken()
	if err != nil {
		return fmt.Errorf("%w: sign device token: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := u.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		// Already accepted in an earlier pass whose response we lost.
		return nil
	default:
		return fmt.Errorf("%w: server returned %d for item %s", ErrUploadFailed, resp.StatusCode, item.ID)
	}
}

func (u *HTTPUploader) deviceToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   u.DeviceID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.deviceSecret)
}

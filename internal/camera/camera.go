package camera

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// HTTPCamera pulls a still frame from the platform camera service on
// loopback. The service owns the hardware; the agent just asks for the
// latest JPEG.
type HTTPCamera struct {
	SnapshotURL string
	Client      *http.Client
}

func NewHTTPCamera(snapshotURL string) *HTTPCamera {
	return &HTTPCamera{
		SnapshotURL: snapshotURL,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPCamera) TakePicture(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SnapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera: snapshot returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 16<<20))
}

// MockCamera returns a canned frame. Used when the agent runs without
// camera hardware (development, automated checks).
type MockCamera struct{}

func NewMockCamera() *MockCamera {
	return &MockCamera{}
}

func (c *MockCamera) TakePicture(ctx context.Context) ([]byte, error) {
	log.Println("[Camera] MOCK capture, returning placeholder frame")
	return []byte("mock-jpeg-frame"), nil
}

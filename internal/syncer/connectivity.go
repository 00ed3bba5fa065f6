package syncer

import (
	"context"
	"net/http"
	"time"
)

// Connectivity is the external online/offline probe. The reconciler
// re-checks it on every pass and never caches the answer.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// HTTPConnectivity probes the backend's health endpoint. Any response at
// all counts as online; the subsequent uploads find out the rest.
type HTTPConnectivity struct {
	ProbeURL string
	Client   *http.Client
}

func NewHTTPConnectivity(probeURL string) *HTTPConnectivity {
	return &HTTPConnectivity{
		ProbeURL: probeURL,
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPConnectivity) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.ProbeURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

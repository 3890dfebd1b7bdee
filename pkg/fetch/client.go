// pkg/fetch/client.go
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client downloads NDK release archives. Its timeout bounds a whole
// transfer, not a single round trip.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient returns a client that allows 30 minutes per release download
// and honours HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
func NewClient() *Client {
	return NewClientWithTimeout(30 * time.Minute)
}

// NewClientWithTimeout is NewClient with a different per-download timeout.
func NewClientWithTimeout(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "minindk/1.0",
	}
}

// Get requests url with the minindk user agent. Any final status other
// than 200 is an error.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return resp, nil
}

// Download streams the release at url into w and returns the bytes written.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return io.Copy(w, resp.Body)
}

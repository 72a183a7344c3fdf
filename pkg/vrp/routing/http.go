package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/config"
)

// httpBackend is the shared transport every HTTP-based adapter embeds: one
// http.Client per server descriptor, retried according to the server's own
// MaxRetries/RetryBackoff.
type httpBackend struct {
	profile string
	server  config.ServerConfig
	client  *http.Client
}

func newHTTPBackend(profile string, srv config.ServerConfig) httpBackend {
	timeout := srv.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return httpBackend{
		profile: profile,
		server:  srv,
		client:  &http.Client{Timeout: timeout},
	}
}

// getJSON issues a GET against the backend and decodes a JSON response,
// retrying transport failures, unreadable bodies and non-2xx responses up
// to the server's MaxRetries with RetryBackoff between attempts. A non-2xx
// response on the last attempt is reported as a RoutingError carrying the
// backend's status code and body.
func (b httpBackend) getJSON(ctx context.Context, url string, out any) error {
	retries := b.server.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := b.server.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return apperror.New(apperror.CodeBackendRequestFailed, "failed to build routing request").
				WithDetails("profile", b.profile).WithDetails("url", url)
		}

		resp, err := b.client.Do(req)
		if err != nil {
			lastErr = apperror.New(apperror.CodeBackendRequestFailed, "routing backend unreachable").
				WithDetails("profile", b.profile).WithDetails("error", err.Error())
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = apperror.New(apperror.CodeBackendRequestFailed,
				fmt.Sprintf("routing backend returned status %d", resp.StatusCode)).
				WithDetails("profile", b.profile).WithDetails("body", string(body))
			continue
		}
		if readErr != nil {
			lastErr = apperror.New(apperror.CodeBackendRequestFailed, "failed to read routing response").
				WithDetails("profile", b.profile)
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return apperror.New(apperror.CodeMalformedMatrix, "routing backend returned malformed JSON").
				WithDetails("profile", b.profile).WithDetails("error", err.Error())
		}
		return nil
	}
	return lastErr
}

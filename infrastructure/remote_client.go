package infrastructure

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"evidence-hub/domain"
)

const maxErrorBody = 512

// StatusError is a non-2xx answer from a review site API.
type StatusError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Source, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrRemoteSource }

// remoteClient is the HTTP plumbing shared by the review site clients.
type remoteClient struct {
	source  string
	http    *http.Client
	limiter *HostLimiter
	log     *logrus.Logger
}

func newRemoteClient(source string, cfg RemoteConfig, limiter *HostLimiter, log *logrus.Logger) remoteClient {
	// zero leaves the request bounded only by its context
	timeout := cfg.Timeout
	if timeout < 0 {
		timeout = 0
	}
	return remoteClient{
		source:  source,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     log,
	}
}

func (c remoteClient) getJSON(ctx context.Context, url, apiKey, accept string, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return fmt.Errorf("%s rate limit: %w", c.source, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", accept)
	req.Header.Set("Content-Type", accept)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request failed: %v", domain.ErrRemoteSource, c.source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", domain.ErrRemoteSource, c.source, err)
	}

	c.log.WithFields(logrus.Fields{
		"source":   c.source,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("remote request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(body))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return &StatusError{Source: c.source, StatusCode: resp.StatusCode, Body: text}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: parse %s response: %v", domain.ErrRemoteSource, c.source, err)
	}
	return nil
}

func isUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden)
}

// apiKeyFingerprint keeps raw keys out of cache keys and logs.
func apiKeyFingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8])
}

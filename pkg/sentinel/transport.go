package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/stack-sentinel/sentinel-go/internal/errutil"
)

const (
	// userAgent identifies this client to the service.
	userAgent = "STACK SENTINEL GO CLIENT"

	// requestContentType is fixed by API v1: the body is the raw JSON
	// envelope, never form-encoded, but the service expects this exact
	// header. Do not change it.
	requestContentType = "application/x-www-form-urlencoded; charset=UTF-8"
)

// transport performs the synchronous HTTP delivery of serialized envelopes.
// Each send is a single best-effort attempt with no retries.
type transport struct {
	endpoint string
	client   *http.Client
	logger   zerolog.Logger
}

func newTransport(endpoint string, client *http.Client, logger zerolog.Logger) *transport {
	if client == nil {
		client = http.DefaultClient
	}
	return &transport{
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}
}

// send POSTs the envelope and returns the parsed service reply. HTTP 400
// becomes a *ValidationError carrying the response body; any other
// non-success status becomes a *TransportError. Network failures propagate
// wrapped.
func (t *transport) send(ctx context.Context, envelope []byte) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept-Charset", "utf-8")
	req.Header.Set("Content-Type", requestContentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to deliver report: %w", err)
	}
	defer errutil.DeferClose(t.logger, resp.Body, "failed to close response body")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	text, decodeErr := decodeResponse(raw, resp.Header.Get("Content-Type"))
	if decodeErr != nil {
		// An undecodable body must not hide the status classification
		// below. Fall back to the raw bytes for error reporting.
		text = string(raw)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &ValidationError{Body: text}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		t.logger.Debug().
			Int("status", resp.StatusCode).
			Msg("Service returned unexpected status")
		return nil, &TransportError{StatusCode: resp.StatusCode, Status: resp.Status, Body: text}
	}

	if decodeErr != nil {
		return nil, decodeErr
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse service response: %w", err)
	}
	return parsed, nil
}

// decodeResponse decodes the response body using its declared charset,
// defaulting to UTF-8 when none is declared.
func decodeResponse(raw []byte, contentType string) (string, error) {
	charset := "utf-8"
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			if cs := params["charset"]; cs != "" {
				charset = cs
			}
		}
	}

	if strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(raw), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("unsupported response charset %q: %w", charset, err)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode response as %s: %w", charset, err)
	}
	return string(decoded), nil
}

// Package sentinelhttp reports panics escaping net/http handlers to Stack
// Sentinel.
//
//	client, _ := sentinel.New(sentinel.Config{...})
//	http.ListenAndServe(":8080", sentinelhttp.Handler(client, mux))
//
// The wrapped handler's panic is re-raised unchanged after reporting, so the
// server's own panic handling (connection reset, logging) is unaffected.
package sentinelhttp

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/stack-sentinel/sentinel-go/pkg/sentinel"
)

// Handler wraps next with exception reporting through client.
func Handler(client *sentinel.Client, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				// Reporting failures must not mask the panic itself.
				_, err := client.HandleException(r.Context(), sentinel.Capture(rec), sentinel.ReportOptions{
					State: map[string]any{"wsgi_environ": Environ(r)},
				})
				if err != nil {
					logger := client.Logger()
					logger.Warn().Err(err).Msg("Failed to report exception from handler")
				}
				panic(rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Environ builds a CGI-style request environ from an HTTP request. The shape
// matches what the service's other web clients send, so server-side grouping
// works across languages.
func Environ(r *http.Request) map[string]any {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	host, port := splitHostPort(r.Host, scheme)

	env := map[string]any{
		"REQUEST_METHOD":  r.Method,
		"SCRIPT_NAME":     "",
		"PATH_INFO":       r.URL.Path,
		"QUERY_STRING":    r.URL.RawQuery,
		"SERVER_PROTOCOL": r.Proto,
		"SERVER_NAME":     host,
		"SERVER_PORT":     port,
		"REMOTE_ADDR":     r.RemoteAddr,
		"wsgi.url_scheme": scheme,
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		env["CONTENT_TYPE"] = ct
	}
	if r.ContentLength >= 0 {
		env["CONTENT_LENGTH"] = strconv.FormatInt(r.ContentLength, 10)
	}

	for name, values := range r.Header {
		key := "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		if key == "HTTP_CONTENT_TYPE" || key == "HTTP_CONTENT_LENGTH" {
			continue
		}
		env[key] = strings.Join(values, ", ")
	}

	return env
}

func splitHostPort(hostport, scheme string) (string, string) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		port = "80"
		if scheme == "https" {
			port = "443"
		}
		return hostport, port
	}
	return host, port
}

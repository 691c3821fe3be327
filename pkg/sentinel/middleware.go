package sentinel

import (
	"context"
	"io"
)

// App is a request-handling callable in the WSGI style: it receives a request
// environ and returns a response stream. The Middleware type both wraps and
// satisfies this contract, so adapters stack.
type App func(environ map[string]any) ResponseStream

// ResponseStream yields response body chunks. Next returns the next chunk and
// whether one was produced; false means the stream is exhausted. Streams
// backed by a releasable resource additionally implement io.Closer.
type ResponseStream interface {
	Next() ([]byte, bool)
}

// Middleware wraps an application callable and reports any panic escaping it
// (during invocation or during response iteration) before re-panicking the
// identical value. The application's own failure behavior is never masked:
// reporting failures are logged and swallowed, and the response stream's
// underlying Closer is released exactly once on every exit path.
type Middleware struct {
	app    App
	client *Client
}

// NewMiddleware wraps app with exception reporting through client.
func NewMiddleware(app App, client *Client) *Middleware {
	return &Middleware{app: app, client: client}
}

// Call invokes the wrapped application. It satisfies App, so middlewares
// compose: NewMiddleware(inner.Call, client).
func (m *Middleware) Call(environ map[string]any) ResponseStream {
	result := m.invoke(environ)
	if result == nil {
		return nil
	}
	return &reportingStream{middleware: m, environ: environ, inner: result}
}

func (m *Middleware) invoke(environ map[string]any) ResponseStream {
	defer func() {
		if r := recover(); r != nil {
			m.report(environ, r)
			panic(r)
		}
	}()
	return m.app(environ)
}

// report sends one exception report with the request environ as state.
// Failures to report must not mask the application's own panic.
func (m *Middleware) report(environ map[string]any, v any) {
	info := Capture(v)
	_, err := m.client.HandleException(context.Background(), info, ReportOptions{
		State: map[string]any{"wsgi_environ": environ},
	})
	if err != nil {
		m.client.logger.Warn().Err(err).Msg("Failed to report exception from middleware")
	}
}

// reportingStream forwards iteration to the wrapped stream, reporting and
// re-panicking on iteration failure, and closing the underlying resource
// exactly once whether iteration finishes, panics, or is abandoned.
type reportingStream struct {
	middleware *Middleware
	environ    map[string]any
	inner      ResponseStream
	closed     bool
}

func (s *reportingStream) Next() (chunk []byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.middleware.report(s.environ, r)
			s.release()
			panic(r)
		}
	}()

	chunk, ok = s.inner.Next()
	if !ok {
		s.release()
	}
	return chunk, ok
}

// Close releases the underlying stream. Consumers that abandon a stream
// before exhausting it must call Close themselves.
func (s *reportingStream) Close() error {
	return s.release()
}

func (s *reportingStream) release() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if closer, ok := s.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

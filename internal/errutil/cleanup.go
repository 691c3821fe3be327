// Package errutil provides small error-handling helpers shared across the
// client.
package errutil

import (
	"io"

	"github.com/rs/zerolog"
)

// DeferClose closes an io.Closer and logs the close error instead of
// suppressing it. Use in defer statements where the close error cannot be
// returned, such as HTTP response bodies.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}

// Package testhelpers provides utilities for testing.
package testhelpers

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/forge-flow/logging"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Logger returns a trace level zerolog.Logger for the test.
// Logs are buffered in memory and only printed through tb.Log when the test fails.
// Options are applied after the defaults, so logging.WithSoleWriter replaces the buffer.
func Logger(tb testing.TB, options ...logging.Option) zerolog.Logger {
	tb.Helper()

	logs := &syncBuffer{}
	defaults := []logging.Option{
		logging.WithWriters(logs),
		logging.WithLevel("trace"),
		logging.WithConsoleLog(false),
	}

	logger, err := logging.New(append(defaults, options...)...)
	require.NoError(tb, err)
	tb.Cleanup(func() {
		if tb.Failed() && logs.String() != "" {
			tb.Logf("logs of %s:\n%s", tb.Name(), logs.String())
		}
	})
	return logger.With().Str("test", tb.Name()).Logger()
}

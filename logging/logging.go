// Package logging builds the zerolog logger used by the forge-flow CLI.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TimeLayout is the default time layout for the logger.
const TimeLayout = "2006-01-02T15:04:05.000Z"

var once sync.Once

type options struct {
	enableConsoleLog bool
	consoleOut       io.Writer
	logLevelInput    string
	logFileName      string
	writers          []io.Writer
	soleWriter       io.Writer
	secrets          []string
}

// Option is a function that sets an option for the logger.
type Option func(*options)

// WithWriters adds additional writers to use for logging.
// This is useful for testing logging output.
func WithWriters(writers ...io.Writer) Option {
	return func(o *options) {
		o.writers = append(o.writers, writers...)
	}
}

// WithSoleWriter sets the sole writer to use for logging, ignoring files and the console.
// This is useful for testing logging output.
func WithSoleWriter(writer io.Writer) Option {
	return func(o *options) {
		o.soleWriter = writer
	}
}

// WithFileName also writes JSON logs to a rotated file.
func WithFileName(logFileName string) Option {
	return func(o *options) {
		o.logFileName = logFileName
	}
}

// WithLevel sets the log level.
func WithLevel(logLevelInput string) Option {
	return func(o *options) {
		o.logLevelInput = logLevelInput
	}
}

// WithConsoleLog enables or disables console logging.
func WithConsoleLog(enabled bool) Option {
	return func(o *options) {
		o.enableConsoleLog = enabled
	}
}

// WithConsoleOutput changes where console logs go. Defaults to stderr so that
// command output on stdout stays clean.
func WithConsoleOutput(out io.Writer) Option {
	return func(o *options) {
		o.consoleOut = out
	}
}

// WithSecrets sets the secrets to redact in the logs.
func WithSecrets(secrets []string) Option {
	return func(o *options) {
		o.secrets = append(o.secrets, secrets...)
	}
}

func defaultOptions() *options {
	return &options{
		enableConsoleLog: true,
		consoleOut:       os.Stderr,
	}
}

func withRedactWriter(writer io.Writer, secrets [][]byte) io.Writer {
	if len(secrets) == 0 {
		return writer
	}
	return &redactWriter{
		Writer:  writer,
		Secrets: secrets,
	}
}

// New initializes a new logger with the specified options.
func New(options ...Option) (zerolog.Logger, error) {
	opts := defaultOptions()
	for _, opt := range options {
		opt(opts)
	}

	secrets := nonEmptySecrets(opts.secrets)
	writers := make([]io.Writer, 0, len(opts.writers)+2)
	for _, w := range opts.writers {
		writers = append(writers, withRedactWriter(w, secrets))
	}

	if opts.soleWriter != nil {
		writers = []io.Writer{withRedactWriter(opts.soleWriter, secrets)}
	} else {
		if opts.logFileName != "" {
			if err := os.MkdirAll(filepath.Dir(opts.logFileName), 0700); err != nil {
				return zerolog.Logger{}, err
			}
			if err := os.WriteFile(opts.logFileName, []byte{}, 0600); err != nil {
				return zerolog.Logger{}, err
			}
			lumberLogger := &lumberjack.Logger{
				Filename:   opts.logFileName,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     14,
			}
			writers = append(writers, withRedactWriter(lumberLogger, secrets))
		}
		if opts.enableConsoleLog {
			console := zerolog.ConsoleWriter{Out: opts.consoleOut, TimeFormat: TimeLayout}
			writers = append(writers, withRedactWriter(console, secrets))
		}
	}

	logLevel, err := getLogLevel(opts.logLevelInput)
	if err != nil {
		return zerolog.Logger{}, err
	}

	once.Do(func() {
		zerolog.TimeFieldFormat = TimeLayout
	})
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(logLevel).With().Timestamp().Logger()
	return logger, nil
}

// MustNew is New but panics if there is an error.
func MustNew(options ...Option) zerolog.Logger {
	logger, err := New(options...)
	if err != nil {
		panic(err)
	}
	return logger
}

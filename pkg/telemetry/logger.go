package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog.Logger with cargows-specific fields.
type Logger struct {
	zlog   zerolog.Logger
	config LoggingConfig

	// closer is set only on the root logger of a file-backed output.
	closer io.Closer
}

// loggerContextKey is the context key for logger instances.
type loggerContextKey struct{}

// logLevels maps configuration level names to zerolog levels.
var logLevels = map[string]zerolog.Level{
	"trace": zerolog.TraceLevel,
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
	"fatal": zerolog.FatalLevel,
}

// ParseLevel converts a level name to a zerolog level. Unknown and empty
// names map to info.
func ParseLevel(level string) zerolog.Level {
	if l, ok := logLevels[level]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// NewLogger creates a logger for cfg. When cfg.Output names a file, the file
// stays open until Close.
func NewLogger(cfg LoggingConfig) (*Logger, error) {
	writer, closer, err := openLogOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: consoleTimeFormat(cfg.TimeFormat),
		}
	}
	zerolog.TimeFieldFormat = timeFieldFormat(cfg.TimeFormat)

	zctx := zerolog.New(writer).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.EnableCaller {
		zctx = zctx.Caller()
	}

	return &Logger{
		zlog:   zctx.Logger(),
		config: cfg,
		closer: closer,
	}, nil
}

// openLogOutput resolves "stdout", "stderr" (the default) or a file path that
// is opened for appending.
func openLogOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr", "":
		return os.Stderr, nil, nil
	}

	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

// NewWriterLogger creates a JSON logger that writes to w. Useful for tests
// that need to inspect log output.
func NewWriterLogger(w io.Writer, level string) *Logger {
	return &Logger{
		zlog:   zerolog.New(w).Level(ParseLevel(level)),
		config: LoggingConfig{Level: level, Format: "json"},
	}
}

// Close releases the log file, if the logger opened one. Derived loggers
// share the file but never close it.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// derive returns a child logger that shares l's configuration but not its file.
func (l *Logger) derive(zlog zerolog.Logger) *Logger {
	return &Logger{zlog: zlog, config: l.config}
}

// NewComponentLogger creates a child logger for a specific component.
func (l *Logger) NewComponentLogger(component string) *Logger {
	return l.derive(l.zlog.With().Str("component", component).Logger())
}

// WithContext adds the logger to the context.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext retrieves the logger from the context.
// If no logger is found, it wraps the global zerolog logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(*Logger); ok {
		return l
	}
	return &Logger{
		zlog: log.Logger,
	}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(l.zlog.With().Fields(fields).Logger())
}

// WithField returns a logger with a single additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(l.zlog.With().Interface(key, value).Logger())
}

// WithManifest adds a manifest_path field to the logger.
func (l *Logger) WithManifest(manifestPath string) *Logger {
	return l.WithField("manifest_path", manifestPath)
}

// WithPackageID adds a package_id field to the logger.
func (l *Logger) WithPackageID(packageID string) *Logger {
	return l.WithField("package_id", packageID)
}

// WithError adds error information to the logger.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zlog.With().Err(err).Logger())
}

// Zerolog returns the underlying zerolog logger for call sites that want the
// event-builder API directly.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string) {
	l.zlog.Debug().Msg(msg)
}

// Warn logs a warning-level message.
func (l *Logger) Warn(msg string) {
	l.zlog.Warn().Msg(msg)
}

func timeFieldFormat(format string) string {
	switch format {
	case "unix":
		return zerolog.TimeFormatUnix
	case "unixms":
		return zerolog.TimeFormatUnixMs
	default:
		return time.RFC3339
	}
}

func consoleTimeFormat(format string) string {
	if format == "unix" {
		return "unix"
	}
	return time.RFC3339
}

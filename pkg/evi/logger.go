package evi

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the diagnostic logger of the SDK. It writes to stderr by default
// and is separate from the transcript Console on stdout.
type Logger struct {
	zl zerolog.Logger
}

type LogLevel int

const (
	TraceLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
	Disabled
)

var zerologLevels = map[LogLevel]zerolog.Level{
	TraceLevel: zerolog.TraceLevel,
	DebugLevel: zerolog.DebugLevel,
	InfoLevel:  zerolog.InfoLevel,
	WarnLevel:  zerolog.WarnLevel,
	ErrorLevel: zerolog.ErrorLevel,
	FatalLevel: zerolog.FatalLevel,
	Disabled:   zerolog.Disabled,
}

// LogConfig selects level, sink and static fields of a Logger.
type LogConfig struct {
	Level     LogLevel
	Pretty    bool
	Output    io.Writer
	AddSource bool
	Fields    map[string]interface{}
}

func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:  WarnLevel,
		Pretty: true,
		Output: os.Stderr,
		Fields: make(map[string]interface{}),
	}
}

// ParseLogLevel maps a HUME_DEBUG_LEVEL value such as "DEBUG" to a LogLevel.
func ParseLogLevel(level string) (LogLevel, bool) {
	switch level {
	case "TRACE":
		return TraceLevel, true
	case "DEBUG":
		return DebugLevel, true
	case "INFO":
		return InfoLevel, true
	case "WARNING", "WARN":
		return WarnLevel, true
	case "ERROR":
		return ErrorLevel, true
	case "OFF":
		return Disabled, true
	}
	return InfoLevel, false
}

func NewLogger(config *LogConfig) *Logger {
	if config == nil {
		config = DefaultLogConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	if config.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	level, ok := zerologLevels[config.Level]
	if !ok {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if config.AddSource {
		ctx = ctx.Caller()
	}
	if len(config.Fields) > 0 {
		ctx = ctx.Fields(config.Fields)
	}
	return &Logger{zl: ctx.Logger()}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }

func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

// Fatal logs msg and exits the process.
func (l *Logger) Fatal(msg string) { l.zl.Fatal().Msg(msg) }

// LogAudioEvent records capture and playback activity at debug level.
func (l *Logger) LogAudioEvent(event string, fields map[string]interface{}) {
	l.zl.Debug().
		Str("event_type", "audio").
		Str("event", event).
		Fields(fields).
		Msg("Audio event")
}

// LogConnectionEvent records socket lifecycle changes at info level.
func (l *Logger) LogConnectionEvent(event string, state ConnectionState, fields map[string]interface{}) {
	l.zl.Info().
		Str("event_type", "connection").
		Str("event", event).
		Str("state", string(state)).
		Fields(fields).
		Msg("Connection event")
}

// LogMessageEvent records one inbound chat event at debug level.
func (l *Logger) LogMessageEvent(eventType string, fields map[string]interface{}) {
	l.zl.Debug().
		Str("event_type", "message").
		Str("message_type", eventType).
		Fields(fields).
		Msg("Message event")
}

// LogError writes err with its code and details.
func (l *Logger) LogError(err *EVIError) {
	l.zl.Error().
		Str("error_code", err.Code).
		Float64("timestamp", err.Timestamp).
		Fields(err.Details).
		Err(err.err).
		Msg(err.Message)
}

var (
	globalMu     sync.RWMutex
	globalLogger = NewLogger(DefaultLogConfig())
)

// GetGlobalLogger returns the logger new SDK components derive from.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetGlobalLogger replaces the logger for components created afterwards.
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

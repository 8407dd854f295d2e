package logger

import (
	stdlog "log"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a structured logger
type Logger struct {
	*zap.SugaredLogger
}

// New creates a new logger that writes JSON, errors to stderr and everything else to stdout
func New(loglevel zapcore.Level) *Logger {
	stderrLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= loglevel && lvl >= zapcore.ErrorLevel
	})

	stdoutLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= loglevel && lvl < zapcore.ErrorLevel
	})

	return build(
		zapcore.NewCore(encoder(), zapcore.Lock(os.Stderr), stderrLevel),
		zapcore.NewCore(encoder(), zapcore.Lock(os.Stdout), stdoutLevel),
	)
}

// NewStderr creates a logger that writes every level to stderr, leaving stdout for program output
func NewStderr(loglevel zapcore.Level) *Logger {
	return build(zapcore.NewCore(encoder(), zapcore.Lock(os.Stderr), loglevel))
}

func encoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func build(cores ...zapcore.Core) *Logger {
	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	// Redirect stdlib log package to zap
	_, _ = zap.RedirectStdLogAt(log, zapcore.ErrorLevel)

	return &Logger{
		log.Sugar(),
	}
}

// Named returns a logger for a component, e.g. "grid" or "filterapi"
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.SugaredLogger.Named(name)}
}

type httpErrorLog struct {
	log *Logger
}

func (h *httpErrorLog) Write(p []byte) (int, error) {
	m := strings.TrimSpace(string(p))

	// Clients hanging up mid-response are not our errors
	if strings.HasPrefix(m, "http: URL query contains semicolon") || strings.Contains(m, "broken pipe") {
		h.log.Debug(m)
	} else {
		h.log.Error(m)
	}

	return len(p), nil
}

// NewHTTPErrorLog returns a stdlib logger for http.Server.ErrorLog that writes to l
func NewHTTPErrorLog(l *Logger) *stdlog.Logger {
	return stdlog.New(&httpErrorLog{l}, "", 0)
}

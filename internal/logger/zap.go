package logger

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

const (
	name = "papertrail"

	// fallbackLevel keeps a run quiet unless diagnostics were asked for.
	fallbackLevel = zapcore.WarnLevel
)

var nopLogger = &Logger{SugaredLogger: zap.NewNop().Sugar()}

// ParseLevel maps a log_level value to a zap level. Unknown or empty
// values report false and the fallback level.
func ParseLevel(s string) (zapcore.Level, bool) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return fallbackLevel, false
	}
	return lvl, true
}

// New builds a console logger writing to w. Diagnostics never share a
// stream with search output, so callers pass stderr.
func New(level string, w io.Writer) *Logger {
	lvl, _ := ParseLevel(level)

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), lvl)
	return &Logger{SugaredLogger: zap.New(core).Named(name).Sugar()}
}

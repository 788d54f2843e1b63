package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log   *zap.Logger
	level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
)

func init() {
	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		NameKey:      "logger",
		CallerKey:    "caller",
		MessageKey:   "msg",
		LineEnding:   zapcore.DefaultLineEnding,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.CapitalColorLevelEncoder, // 彩色等级
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(os.Stdout),
		level,
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// SetLevel accepts debug|info|warn|error; unknown values keep the current level.
func SetLevel(l string) {
	var lv zapcore.Level
	if err := lv.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(l)))); err != nil {
		Warnf("unknown log level %q, keeping %s", l, level.Level())
		return
	}
	level.SetLevel(lv)
}

// Named returns a child logger, e.g. logger.Named("registry").
func Named(name string) *zap.Logger { return Log.WithOptions(zap.AddCallerSkip(-1)).Named(name) }

func Sync() { _ = Log.Sync() }

// 快捷方法
func Info(msg string, fields ...zap.Field) { Log.Info(msg, fields...) }
func Infof(format string, args ...interface{}) {
	Log.Info(fmt.Sprintf(format, args...))
}
func Warn(msg string, fields ...zap.Field) { Log.Warn(msg, fields...) }
func Warnf(format string, args ...interface{}) {
	Log.Warn(fmt.Sprintf(format, args...))
}
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }

func Errorf(format string, args ...interface{}) {
	Log.Error(fmt.Sprintf(format, args...))
}

func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }

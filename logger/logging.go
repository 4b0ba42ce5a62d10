package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	enabled atomic.Bool
	sugar   = zap.NewNop().Sugar()
)

func init() {
	enabled.Store(true)
	Init(false)
}

// Init swaps the backing logger. debug selects the human-readable
// development encoder with debug level enabled.
func Init(debug bool) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		l, err = cfg.Build()
	}
	if err != nil {
		return
	}
	sugar = l.Sugar()
}

// EnableLogging turns all output on or off (tests turn it off).
func EnableLogging(b bool) {
	enabled.Store(b)
}

// With returns a child logger carrying the given key/value pairs.
func With(kv ...interface{}) *zap.SugaredLogger {
	return sugar.With(kv...)
}

func Debug(msg string, v ...interface{}) {
	if !enabled.Load() {
		return
	}
	sugar.Debugf(msg, v...)
}

func Info(msg string, v ...interface{}) {
	if !enabled.Load() {
		return
	}
	sugar.Infof(msg, v...)
}

func Warn(msg string, v ...interface{}) {
	if !enabled.Load() {
		return
	}
	sugar.Warnf(msg, v...)
}

func Error(msg string, v ...interface{}) {
	if !enabled.Load() {
		return
	}
	sugar.Errorf(msg, v...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = sugar.Sync()
}

package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/seating/core"
)

// RollbarLogger logs through zap and reports to rollbar.
type RollbarLogger struct {
	*ZapLogger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(sugar *zap.SugaredLogger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	// the std wrapper adds a frame
	return &RollbarLogger{ZapLogger: &ZapLogger{sugar: sugar.WithOptions(zap.AddCallerSkip(2))}}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// prepare builds rollbar args. expected fmt: msg | error, map[string]interface{}
// Key/value pairs are folded into the extras map.
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	extras := make(map[string]interface{})
	for i := 0; i < len(args); i++ {
		switch arg := args[i].(type) {
		case error:
			newArgs = append(newArgs, arg)
		case map[string]interface{}:
			for k, v := range arg {
				extras[k] = v
			}
		case string:
			if i+1 < len(args) {
				extras[arg] = args[i+1]
				i++
			}
		}
	}
	if len(extras) > 0 {
		newArgs = append(newArgs, extras)
	}
	return newArgs
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.ZapLogger.Debug(msg, args...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.ZapLogger.Info(msg, args...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.ZapLogger.Warn(msg, args...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.ZapLogger.Error(msg, args...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	rollbar.Wait()
	l.ZapLogger.Fatal(msg, args...)
}

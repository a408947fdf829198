package logsvc

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/trezcool/seating/core"
)

// ZapLogger is a core.Logger printing through zap.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ core.Logger = (*ZapLogger)(nil)

// NewZap builds the app's zap logger: human readable in debug mode, JSON otherwise.
func NewZap(conf *core.Config) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if conf.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar().With("app", conf.AppName, "env", conf.Env, "build", conf.Build), nil
}

func NewLogger(sugar *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{sugar: sugar.WithOptions(zap.AddCallerSkip(1))}
}

// keysAndValues flattens args into zap key/value pairs.
// expected fmt: error, map[string]interface{}, key/value pairs
func keysAndValues(args []interface{}) []interface{} {
	kvs := make([]interface{}, 0, 2*len(args))
	for i := 0; i < len(args); i++ {
		switch arg := args[i].(type) {
		case error:
			kvs = append(kvs, zap.Error(arg))
		case map[string]interface{}:
			keys := make([]string, 0, len(arg))
			for k := range arg {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				kvs = append(kvs, k, arg[k])
			}
		case string:
			if i+1 < len(args) {
				kvs = append(kvs, arg, args[i+1])
				i++
				continue
			}
			kvs = append(kvs, fmt.Sprintf("arg%d", i), arg)
		default:
			kvs = append(kvs, fmt.Sprintf("arg%d", i), arg)
		}
	}
	return kvs
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues(args)...)
}

func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, keysAndValues(args)...)
}

func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues(args)...)
}

func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues(args)...)
}

func (l *ZapLogger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues(args)...)
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

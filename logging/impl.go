package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used throughout the module. Every session and task owns a
// Sublogger of its parent such that levels can be tuned per task name.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<parent>.<subname>" registered in the logger registry.
	Sublogger(subname string) Logger
	AddAppender(appender Appender)
	SetLevel(level Level)
	GetLevel() Level
	Name() string
	AsZap() *zap.SugaredLogger
}

type impl struct {
	name      string
	level     AtomicLevel
	appenders []Appender
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Name() string {
	return imp.name
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = imp.name + "." + subname
	}
	return globalLoggerRegistry.register(newName, &impl{
		name:      newName,
		level:     NewAtomicLevelAt(imp.level.Get()),
		appenders: imp.appenders,
	})
}

// AsZap returns a zap logger at this logger's current level. Appenders that are zap cores, such
// as the observer of a test logger, also receive its entries.
func (imp *impl) AsZap() *zap.SugaredLogger {
	level := imp.level.Get().AsZap()
	config := NewZapLoggerConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	ret := zap.Must(config.Build()).Sugar().Named(imp.name)
	for _, appender := range imp.appenders {
		core, ok := appender.(zapcore.Core)
		if !ok {
			continue
		}
		if leveled, err := zapcore.NewIncreaseLevelCore(core, level); err == nil {
			core = leveled
		}
		ret = ret.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}
	return ret
}

func (imp *impl) Debug(args ...interface{}) { imp.emit(DEBUG, nil, "", args...) }
func (imp *impl) Debugf(t string, args ...interface{}) { imp.emit(DEBUG, nil, t, args...) }
func (imp *impl) Debugw(msg string, kv ...interface{}) { imp.emit(DEBUG, kv, msg) }
func (imp *impl) Info(args ...interface{}) { imp.emit(INFO, nil, "", args...) }
func (imp *impl) Infof(t string, args ...interface{}) { imp.emit(INFO, nil, t, args...) }
func (imp *impl) Infow(msg string, kv ...interface{}) { imp.emit(INFO, kv, msg) }
func (imp *impl) Warn(args ...interface{}) { imp.emit(WARN, nil, "", args...) }
func (imp *impl) Warnf(t string, args ...interface{}) { imp.emit(WARN, nil, t, args...) }
func (imp *impl) Warnw(msg string, kv ...interface{}) { imp.emit(WARN, kv, msg) }
func (imp *impl) Error(args ...interface{}) { imp.emit(ERROR, nil, "", args...) }
func (imp *impl) Errorf(t string, args ...interface{}) { imp.emit(ERROR, nil, t, args...) }
func (imp *impl) Errorw(msg string, kv ...interface{}) { imp.emit(ERROR, kv, msg) }

// emit writes one entry to every appender. An empty template joins args with fmt.Sprint, a
// template without args is the message verbatim. It must be called directly by a level method so
// the caller lookup lands on the user's frame.
func (imp *impl) emit(level Level, keysAndValues []interface{}, template string, args ...interface{}) {
	if level < imp.level.Get() {
		return
	}
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now().UTC(),
		LoggerName: imp.name,
		Caller:     logCaller(),
	}
	switch {
	case template == "":
		entry.Message = fmt.Sprint(args...)
	case len(args) == 0:
		entry.Message = template
	default:
		entry.Message = fmt.Sprintf(template, args...)
	}
	fields := toFields(keysAndValues)
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

// toFields pairs up keys and values. A trailing key without a value is kept with an error value.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
		}
	}
	return fields
}

// logCaller returns the frame that called a level method, e.g. "status/status.go:36".
func logCaller() zapcore.EntryCaller {
	// logCaller <- emit <- level method <- caller
	const skip = 3
	var entryCaller zapcore.EntryCaller
	var ok bool
	entryCaller.PC, entryCaller.File, entryCaller.Line, ok = runtime.Caller(skip)
	if !ok {
		return entryCaller
	}
	entryCaller.Defined = true
	if fn := runtime.FuncForPC(entryCaller.PC); fn != nil {
		entryCaller.Function = fn.Name()
	}
	return entryCaller
}

package logging

import mdwlog "github.com/msto63/kinematics/foundation/core/log"

// Logger adds slog style key/value arguments to the Foundation logger:
//
//	logger.Info("Run recorded", "run_id", id, "duration", d)
//
// Pairs with a non-string key are dropped.
type Logger struct {
	*mdwlog.Logger
	name string
}

// New returns a named logger with the configured settings
func New(name string) *Logger {
	return Wrap(NewSimpleLogger(name), name)
}

// Wrap adapts an existing Foundation logger
func Wrap(logger *mdwlog.Logger, name string) *Logger {
	return &Logger{Logger: logger, name: name}
}

func (l *Logger) Name() string { return l.name }

// With returns a logger adding the pairs to every entry
func (l *Logger) With(kv ...interface{}) *Logger {
	return Wrap(l.Logger.WithFields(toFields(kv...)), l.name)
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.Logger.Debug(msg, toFields(kv...)) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.Logger.Info(msg, toFields(kv...)) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.Logger.Warn(msg, toFields(kv...)) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.Logger.Error(msg, toFields(kv...)) }

func toFields(kv ...interface{}) mdwlog.Fields {
	if len(kv) == 0 {
		return nil
	}
	fields := make(mdwlog.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	return fields
}

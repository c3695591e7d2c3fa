package uthread

import "go.uber.org/zap"

// logger is the scheduler-wide structured logger. Defaults to a no-op so
// the library stays silent unless a caller opts in via WithLogger — see
// config.go.
var logger = zap.NewNop()

func setLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

package logging

import "go.uber.org/zap"

// New creates the process-wide zap logger. Handlers log with a "context"
// field identifying the operation, e.g. legal.court-proceedings.create.
func New() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger.Sugar()
}

// NewNop returns a no-op logger for tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

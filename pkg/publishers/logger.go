package publishers

import "github.com/paperboy-hq/paperboy/internal/logger"

// Logger is the logging surface publishers rely on, shared with the
// rest of the application.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}

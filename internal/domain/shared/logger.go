package shared

// Log levels understood by Logger implementations
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARNING"
	LevelError = "ERROR"
)

// Logger is the logging port used by domain code (scorers, tasks, missions, deliveries)
type Logger interface {
	Log(level, message string, metadata map[string]interface{})
}

// NoOpLogger discards everything. It is the default when no logger is wired.
type NoOpLogger struct{}

func (NoOpLogger) Log(level, message string, metadata map[string]interface{}) {}

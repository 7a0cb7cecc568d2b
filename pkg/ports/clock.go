package ports

import (
	"log"
	"time"
)

// SystemClock is the real-time Clock implementation.
type SystemClock struct{}

// NowMs returns the current wall-clock time in milliseconds.
func (SystemClock) NowMs() int64 {
	return time.Now().UnixMilli()
}

// LogNotifier delivers Notifier messages through the standard log
// package, elevating the teacher's plain fmt.Printf("Warning: ...") style
// to a real logger with severity levels.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier constructs a LogNotifier. A nil logger uses log.Default().
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Show logs message at the given severity.
func (n *LogNotifier) Show(message string, severity Severity) {
	n.logger.Printf("[%s] %s", severity, message)
}

// Package notify carries user-facing operation feedback out of the data
// layer. The service layer reports mutation outcomes here; the delivery
// surface (toast, CLI output, API response) plugs in via Notifier.
package notify

import "go.uber.org/zap"

// Notifier receives user-facing success and error messages.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier is the default Notifier: it writes notifications to the
// structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Success implements Notifier.
func (n *LogNotifier) Success(message string) {
	n.logger.Info("notification", zap.String("kind", "success"), zap.String("message", message))
}

// Error implements Notifier.
func (n *LogNotifier) Error(message string) {
	n.logger.Warn("notification", zap.String("kind", "error"), zap.String("message", message))
}

// Nop is a Notifier that discards everything.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}

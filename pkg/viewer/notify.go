package viewer

import (
	"github.com/charmbracelet/log"
)

// Notifier shows transient messages to the operator.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// LogNotifier writes notifications to a logger at info level.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(msg string) {
	if n.Logger != nil {
		n.Logger.Info(msg)
	}
}

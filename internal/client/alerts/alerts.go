// Package alerts is the user-notification channel of the client. Components
// report successes and failures through a Notifier; the CLI decides how they
// look on screen.
package alerts

import (
	"fmt"
	"io"
)

// Kind classifies an alert for presentation.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notifier displays a message to the user.
type Notifier interface {
	Notify(kind Kind, message string)
}

// WriterNotifier prints alerts to a writer, one per line.
type WriterNotifier struct {
	w io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(kind Kind, message string) {
	fmt.Fprintf(n.w, "[%s] %s\n", kind, message)
}

package domain

// Notifier shows short, dismissible messages to the user: flash messages in
// the browser, coloured lines on the terminal.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// DiscardNotifier drops every message.
type DiscardNotifier struct{}

func (DiscardNotifier) Success(string) {}
func (DiscardNotifier) Error(string)   {}

// RecordingNotifier keeps messages in order. Useful in tests and for
// deferring delivery until a response is written.
type RecordingNotifier struct {
	Successes []string
	Errors    []string
}

func (r *RecordingNotifier) Success(msg string) { r.Successes = append(r.Successes, msg) }
func (r *RecordingNotifier) Error(msg string)   { r.Errors = append(r.Errors, msg) }

package notify

import "context"

// logNotifier writes notices to the structured log; useful as a default sink
// and for dry runs.
type logNotifier struct {
	id  string
	log Logger
}

func newLogNotifier(_ context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	return &logNotifier{id: cfg.ID, log: ensureLogger(log)}, nil
}

// NewLogNotifier exposes the log sink for callers wiring a fanout without a
// notifiers file.
func NewLogNotifier(id string, log Logger) Notifier {
	return &logNotifier{id: id, log: ensureLogger(log)}
}

func (l *logNotifier) ID() string   { return l.id }
func (l *logNotifier) Type() string { return TypeLog }

func (l *logNotifier) Send(_ context.Context, notice Notice) error {
	l.log.InfoObj("new event discovered", "event_notice", notice)
	return nil
}

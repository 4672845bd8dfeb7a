package expression

// Listener receives the engine's notifications synchronously, in the order
// they happen, from inside the call that caused them.
type Listener interface {
	ExpressionChanged(text string)
	ErrorRaised(kind ErrorKind)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnExpressionChanged func(text string)
	OnErrorRaised       func(kind ErrorKind)
}

func (l ListenerFuncs) ExpressionChanged(text string) {
	if l.OnExpressionChanged != nil {
		l.OnExpressionChanged(text)
	}
}

func (l ListenerFuncs) ErrorRaised(kind ErrorKind) {
	if l.OnErrorRaised != nil {
		l.OnErrorRaised(kind)
	}
}

type nopListener struct{}

func (nopListener) ExpressionChanged(string) {}
func (nopListener) ErrorRaised(ErrorKind)    {}

// EventType tells the two kinds of Event apart.
type EventType int

const (
	EventExpressionChanged EventType = iota
	EventErrorRaised
)

func (t EventType) String() string {
	if t == EventErrorRaised {
		return "error_raised"
	}
	return "expression_changed"
}

// Event is one recorded notification. Expression is set for
// EventExpressionChanged, Error for EventErrorRaised.
type Event struct {
	Type       EventType
	Expression string
	Error      ErrorKind
}

// Recorder is a Listener that keeps every notification until Reset.
type Recorder struct {
	events []Event
}

func (r *Recorder) ExpressionChanged(text string) {
	r.events = append(r.events, Event{Type: EventExpressionChanged, Expression: text})
}

func (r *Recorder) ErrorRaised(kind ErrorKind) {
	r.events = append(r.events, Event{Type: EventErrorRaised, Error: kind})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	return append([]Event(nil), r.events...)
}

// Errors returns the kinds of the recorded error events.
func (r *Recorder) Errors() []ErrorKind {
	var kinds []ErrorKind
	for _, ev := range r.events {
		if ev.Type == EventErrorRaised {
			kinds = append(kinds, ev.Error)
		}
	}
	return kinds
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.events = r.events[:0]
}

package calculator

import (
	"countonme/internal/expression"
	"countonme/internal/messages"
)

// CreateSessionRequest is the optional JSON body for POST /calculator/sessions.
// Missing fields fall back to the service defaults.
type CreateSessionRequest struct {
	Precision      *int   `json:"precision,omitempty"`
	MaxWholeDigits *int   `json:"max_whole_digits,omitempty"`
	Strategy       string `json:"strategy,omitempty"`
}

// DigitRequest is the JSON body for POST /calculator/sessions/{id}/digit.
type DigitRequest struct {
	Digit string `json:"digit"`
}

// OperatorRequest is the JSON body for POST /calculator/sessions/{id}/operator.
// Operator is a glyph ("x") or a name ("multiply").
type OperatorRequest struct {
	Operator string `json:"operator"`
}

// EvaluateRequest is the JSON body for POST /calculator/evaluate.
type EvaluateRequest struct {
	CreateSessionRequest
	Keys string `json:"keys"` // e.g. "12+3x4="
}

// ConfigBody is the engine configuration a response was computed with.
type ConfigBody struct {
	Precision      int    `json:"precision"`
	MaxWholeDigits int    `json:"max_whole_digits"`
	Strategy       string `json:"strategy"`
}

// StateBody mirrors expression.State; a UI toggles its buttons from it.
type StateBody struct {
	Expression             string `json:"expression"`
	Result                 string `json:"result,omitempty"`
	IsEmpty                bool   `json:"is_empty"`
	HasResult              bool   `json:"has_result"`
	CanAddDigit            bool   `json:"can_add_digit"`
	CanAddOperator         bool   `json:"can_add_operator"`
	CanAddDecimalSeparator bool   `json:"can_add_decimal_separator"`
	CanCalculate           bool   `json:"can_calculate"`
}

// EventBody is one engine notification. Expression is set for
// expression_changed, Error for error_raised.
type EventBody struct {
	Type       string  `json:"type"`
	Expression *string `json:"expression,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// ErrorBody describes a rejected input in the client's language.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// SessionResponse is the JSON response for every session endpoint.
type SessionResponse struct {
	ID        string      `json:"id"`
	Operation string      `json:"operation"`
	Accepted  bool        `json:"accepted"`
	State     StateBody   `json:"state"`
	Events    []EventBody `json:"events"`
	Error     *ErrorBody  `json:"error,omitempty"`
	Config    ConfigBody  `json:"config"`
	RequestID string      `json:"request_id"`
}

// KeyResult records one replayed key.
type KeyResult struct {
	Key        string     `json:"key"`
	Accepted   bool       `json:"accepted"`
	Expression string     `json:"expression"`
	Error      *ErrorBody `json:"error,omitempty"`
}

// EvaluateResponse is the JSON response for POST /calculator/evaluate.
type EvaluateResponse struct {
	Keys      []KeyResult `json:"keys"`
	State     StateBody   `json:"state"`
	Result    string      `json:"result,omitempty"`
	Config    ConfigBody  `json:"config"`
	RequestID string      `json:"request_id"`
}

func configBody(c expression.Config) ConfigBody {
	return ConfigBody{
		Precision:      c.Precision,
		MaxWholeDigits: c.MaxWholeDigits,
		Strategy:       c.Strategy.String(),
	}
}

func stateBody(s expression.State) StateBody {
	return StateBody{
		Expression:             s.Expression,
		Result:                 s.ResultText(),
		IsEmpty:                s.IsEmpty,
		HasResult:              s.HasResult,
		CanAddDigit:            s.CanAddDigit,
		CanAddOperator:         s.CanAddOperator,
		CanAddDecimalSeparator: s.CanAddDecimalSeparator,
		CanCalculate:           s.CanCalculate,
	}
}

func eventBodies(events []expression.Event) []EventBody {
	out := make([]EventBody, 0, len(events))
	for _, ev := range events {
		body := EventBody{Type: ev.Type.String()}
		if ev.Type == expression.EventErrorRaised {
			body.Error = ev.Error.String()
		} else {
			text := ev.Expression
			body.Expression = &text
		}
		out = append(out, body)
	}
	return out
}

func errorBody(lang string, kind expression.ErrorKind) *ErrorBody {
	return &ErrorBody{
		Kind:    kind.String(),
		Title:   messages.Title(lang),
		Message: messages.Text(lang, kind),
	}
}

// lastError returns the most recent error raised in events.
func lastError(events []expression.Event) (expression.ErrorKind, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == expression.EventErrorRaised {
			return events[i].Error, true
		}
	}
	return 0, false
}

func sessionResponse(id, opName string, out Outcome, lang string) SessionResponse {
	resp := SessionResponse{
		ID:        id,
		Operation: opName,
		Accepted:  out.Accepted,
		State:     stateBody(out.State),
		Events:    eventBodies(out.Events),
		Config:    configBody(out.Config),
	}
	if kind, ok := lastError(out.Events); ok && !out.Accepted {
		resp.Error = errorBody(lang, kind)
	}
	return resp
}

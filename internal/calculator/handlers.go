package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"countonme/internal/expression"
	"countonme/internal/handlers"
	"countonme/internal/keypad"
	"countonme/internal/messages"
	"countonme/internal/observability"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// maxRequestedDigits bounds precision and whole digits asked for over HTTP.
const maxRequestedDigits = 64

// API serves keypad sessions over HTTP.
type API struct {
	store    *Store
	defaults expression.Config
	language string
	maxKeys  int
}

// NewAPI returns an API that creates engines from defaults and answers in
// language when Accept-Language matches nothing. maxKeys bounds a replayed
// key sequence and the number of elements in a session expression.
func NewAPI(store *Store, defaults expression.Config, language string, maxKeys int) *API {
	return &API{store: store, defaults: defaults, language: language, maxKeys: maxKeys}
}

// bodyLimit is the largest request body accepted: room for maxKeys keys of
// up to four bytes each plus the JSON around them.
func (a *API) bodyLimit() int64 {
	return int64(a.maxKeys)*4 + 4096
}

// growthCheck returns the guard run under the session lock before opName
// touches the engine. Only operators add elements; digits are bounded by the
// engine's digit limits.
func (a *API) growthCheck(opName string) func(e *expression.Engine) error {
	if opName != "operator" {
		return nil
	}
	return func(e *expression.Engine) error {
		if !e.HasResult() && len(expression.Elements(e.Expression())) >= a.maxKeys {
			return ErrExpressionTooLong
		}
		return nil
	}
}

// sessionOp decodes a request into the engine call it stands for.
type sessionOp func(r *http.Request) (apply func(e *expression.Engine) bool, attrs []attribute.KeyValue, err error)

// ---------------------------------------------------------------------------
// Handlers: session lifecycle
// ---------------------------------------------------------------------------

// CreateSession handles POST /calculator/sessions
func (a *API) CreateSession(w http.ResponseWriter, r *http.Request) {
	const opName = "create_session"

	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	lang := messages.FromAcceptLanguage(r.Header.Get("Accept-Language"), a.language)

	ctx, span := tracer.Start(ctx, "calculator."+opName,
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req CreateSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err)
		handlers.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := a.configFor(req)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid engine configuration", err)
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := a.store.Create(cfg)
	if errors.Is(err, ErrTooManySessions) {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "session limit reached", err)
		handlers.WriteError(w, http.StatusServiceUnavailable, "session limit reached")
		return
	}
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "creating session", err)
		handlers.WriteError(w, http.StatusInternalServerError, "creating session")
		return
	}

	out := sess.Do(nil)
	opsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", opName)))

	span.SetAttributes(
		attribute.String("calculator.session_id", sess.ID),
		attribute.Int("calculator.precision", cfg.Precision),
		attribute.Int("calculator.max_whole_digits", cfg.MaxWholeDigits),
		attribute.String("calculator.strategy", cfg.Strategy.String()),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator session created",
		zap.String("session_id", sess.ID),
		zap.Int("precision", cfg.Precision),
		zap.Int("max_whole_digits", cfg.MaxWholeDigits),
		zap.Stringer("strategy", cfg.Strategy),
		zap.String("request_id", requestID),
	)

	resp := sessionResponse(sess.ID, opName, out, lang)
	resp.RequestID = requestID
	handlers.WriteJSON(w, http.StatusCreated, resp)
}

// GetSession handles GET /calculator/sessions/{id}
func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "state", func(*http.Request) (func(*expression.Engine) bool, []attribute.KeyValue, error) {
		return nil, nil, nil
	})
}

// DeleteSession handles DELETE /calculator/sessions/{id}
func (a *API) DeleteSession(w http.ResponseWriter, r *http.Request) {
	const opName = "delete_session"

	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	ctx, span := tracer.Start(ctx, "calculator."+opName,
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("calculator.session_id", id),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	if err := a.store.Delete(id); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "session not found", err)
		handlers.WriteError(w, http.StatusNotFound, "session not found")
		return
	}

	opsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", opName)))
	span.SetStatus(codes.Ok, "")
	logger.Info("calculator session deleted",
		zap.String("session_id", id),
		zap.String("request_id", requestID),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Handlers: keypad buttons
// ---------------------------------------------------------------------------

// AddDigit handles POST /calculator/sessions/{id}/digit
func (a *API) AddDigit(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "digit", func(r *http.Request) (func(*expression.Engine) bool, []attribute.KeyValue, error) {
		var req DigitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, err
		}
		apply := func(e *expression.Engine) bool { return e.AddDigit(req.Digit) }
		return apply, []attribute.KeyValue{attribute.String("calculator.digit", req.Digit)}, nil
	})
}

// AddDecimalSeparator handles POST /calculator/sessions/{id}/decimal
func (a *API) AddDecimalSeparator(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "decimal", func(*http.Request) (func(*expression.Engine) bool, []attribute.KeyValue, error) {
		return (*expression.Engine).AddDecimalSeparator, nil, nil
	})
}

// AddOperator handles POST /calculator/sessions/{id}/operator
func (a *API) AddOperator(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "operator", func(r *http.Request) (func(*expression.Engine) bool, []attribute.KeyValue, error) {
		var req OperatorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, err
		}
		op, ok := expression.ParseOperator(req.Operator)
		if !ok {
			return nil, nil, fmt.Errorf("unknown operator %q", req.Operator)
		}
		apply := func(e *expression.Engine) bool { return e.AddOperator(op) }
		return apply, []attribute.KeyValue{attribute.String("calculator.operator", op.String())}, nil
	})
}

// Calculate handles POST /calculator/sessions/{id}/calculate
func (a *API) Calculate(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "calculate", func(*http.Request) (func(*expression.Engine) bool, []attribute.KeyValue, error) {
		return (*expression.Engine).CalculateExpression, nil, nil
	})
}

// Erase handles POST /calculator/sessions/{id}/erase
func (a *API) Erase(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "erase", func(*http.Request) (func(*expression.Engine) bool, []attribute.KeyValue, error) {
		apply := func(e *expression.Engine) bool {
			e.EraseExpression()
			return true
		}
		return apply, nil, nil
	})
}

// handleSessionOp is the shared implementation for every call on an existing
// session: child span, request decoding, the engine call under the session
// lock, metrics, trace-correlated logs and the JSON response.
func (a *API) handleSessionOp(w http.ResponseWriter, r *http.Request, opName string, decode sessionOp) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	lang := messages.FromAcceptLanguage(r.Header.Get("Accept-Language"), a.language)
	id := chi.URLParam(r, "id")

	// --- 1. Custom child span ---
	ctx, span := tracer.Start(ctx, "calculator."+opName,
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("calculator.session_id", id),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	// --- 2. Resolve the session ---
	sess, err := a.store.Get(id)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "session not found", err)
		handlers.WriteError(w, http.StatusNotFound, "session not found")
		return
	}

	// --- 3. Decode request body ---
	apply, attrs, err := decode(r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err)
		handlers.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	span.SetAttributes(attrs...)

	// --- 4. Engine call (timed for histogram) ---
	start := time.Now()
	out, err := sess.DoChecked(a.growthCheck(opName), apply)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "expression too long", err)
		handlers.WriteError(w, http.StatusBadRequest, "expression too long")
		return
	}

	// --- 5. Metrics, span and logs ---
	a.recordOutcome(ctx, span, logger, opName, out, elapsed)

	// --- 6. Write JSON response ---
	resp := sessionResponse(sess.ID, opName, out, lang)
	resp.RequestID = requestID

	status := http.StatusOK
	if !out.Accepted {
		status = http.StatusUnprocessableEntity
	}
	handlers.WriteJSON(w, status, resp)
}

func (a *API) recordOutcome(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, out Outcome, elapsed float64) {
	attrs := metric.WithAttributes(attribute.String("operation", opName))
	opsCounter.Add(ctx, 1, attrs)
	opsHistogram.Record(ctx, elapsed, attrs)

	span.SetAttributes(
		attribute.Bool("calculator.accepted", out.Accepted),
		attribute.String("calculator.expression", out.State.Expression),
	)

	for _, ev := range out.Events {
		if ev.Type != expression.EventErrorRaised {
			continue
		}
		observability.RecordError(ctx, span, logger, errorCounter, opName, "input rejected", ev.Error,
			attribute.String("error.kind", ev.Error.String()),
		)
	}
	if !out.Accepted {
		return
	}

	if result := out.State.ResultText(); result != "" {
		if v, err := decimal.NewFromString(result); err == nil {
			resultGauge.Record(ctx, v.InexactFloat64(), attrs)
		}
		span.AddEvent("computation.complete", trace.WithAttributes(
			attribute.String("result", result),
			attribute.Float64("duration_ms", elapsed),
		))
		span.SetAttributes(attribute.String("calculator.result", result))
	}
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator operation completed",
		zap.String("operation", opName),
		zap.String("expression", out.State.Expression),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
		zap.Float64("duration_ms", elapsed),
	)
}

// ---------------------------------------------------------------------------
// Handler: keystroke replay (one child span per key)
// ---------------------------------------------------------------------------

// Evaluate handles POST /calculator/evaluate. It replays a key sequence on a
// throwaway engine, creating a child span for every key.
func (a *API) Evaluate(w http.ResponseWriter, r *http.Request) {
	const opName = "evaluate"

	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	lang := messages.FromAcceptLanguage(r.Header.Get("Accept-Language"), a.language)

	// Parent span for the entire replay
	ctx, span := tracer.Start(ctx, "calculator."+opName,
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err)
		handlers.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	keys, err := keypad.ParseSequence(req.Keys)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid key sequence", err)
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(keys) == 0 {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "no keys provided", errors.New("key sequence is empty"))
		handlers.WriteError(w, http.StatusBadRequest, "no keys provided")
		return
	}
	if len(keys) > a.maxKeys {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "too many keys",
			fmt.Errorf("%d keys, at most %d allowed", len(keys), a.maxKeys))
		handlers.WriteError(w, http.StatusBadRequest, fmt.Sprintf("too many keys: at most %d", a.maxKeys))
		return
	}

	cfg, err := a.configFor(req.CreateSessionRequest)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid engine configuration", err)
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := &expression.Recorder{}
	engine, err := expression.New(cfg, rec)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid engine configuration", err)
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("evaluate.keys", keypad.Format(keys)),
		attribute.Int("evaluate.keys_count", len(keys)),
	)

	logger.Info("starting keystroke replay",
		zap.String("keys", keypad.Format(keys)),
		zap.Int("count", len(keys)),
		zap.String("request_id", requestID),
	)

	results := make([]KeyResult, 0, len(keys))
	rejected := 0

	for i, k := range keys {
		input := engine.Expression()

		// --- Child span per key ---
		_, keySpan := tracer.Start(ctx, fmt.Sprintf("calculator.evaluate.key.%d.%s", i, k.Action),
			trace.WithAttributes(
				attribute.Int("evaluate.key.index", i),
				attribute.String("evaluate.key.label", k.String()),
				attribute.String("evaluate.key.input", input),
			),
		)

		rec.Reset()
		keyStart := time.Now()
		accepted := k.Apply(engine)
		keyElapsed := float64(time.Since(keyStart).Microseconds()) / 1000.0

		kr := KeyResult{Key: k.String(), Accepted: accepted, Expression: engine.Expression()}
		keyAttrs := metric.WithAttributes(attribute.String("operation", k.Action.String()))
		keysCounter.Add(ctx, 1, keyAttrs)
		opsHistogram.Record(ctx, keyElapsed, keyAttrs)

		if errs := rec.Errors(); len(errs) > 0 {
			kind := errs[len(errs)-1]
			kr.Error = errorBody(lang, kind)
			rejected++

			keySpan.RecordError(kind)
			keySpan.SetStatus(codes.Error, kind.String())
			errorCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("operation", k.Action.String()),
				attribute.String("error.kind", kind.String()),
			))

			logger.Warn("key rejected",
				zap.Int("index", i),
				zap.String("key", k.String()),
				zap.Stringer("error_kind", kind),
				zap.String("expression", kr.Expression),
			)
		} else {
			keySpan.AddEvent("key.applied", trace.WithAttributes(
				attribute.String("input", input),
				attribute.String("expression", kr.Expression),
			))
			keySpan.SetStatus(codes.Ok, "")
		}
		keySpan.End()

		results = append(results, kr)
	}

	state := engine.State()
	result := state.ResultText()
	evalAttrs := metric.WithAttributes(attribute.String("operation", opName))
	opsCounter.Add(ctx, 1, evalAttrs)
	if v, ok := engine.Result(); ok {
		resultGauge.Record(ctx, v.InexactFloat64(), evalAttrs)
	}

	span.AddEvent("evaluate.complete", trace.WithAttributes(
		attribute.String("expression", state.Expression),
		attribute.Int("rejected_keys", rejected),
	))
	span.SetAttributes(attribute.String("evaluate.result", result))
	span.SetStatus(codes.Ok, "")

	logger.Info("keystroke replay completed",
		zap.String("expression", state.Expression),
		zap.String("result", result),
		zap.Int("rejected", rejected),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, EvaluateResponse{
		Keys:      results,
		State:     stateBody(state),
		Result:    result,
		Config:    configBody(cfg),
		RequestID: requestID,
	})
}

// configFor overlays the requested settings on the service defaults. Only
// values supplied by the client are held to maxRequestedDigits.
func (a *API) configFor(req CreateSessionRequest) (expression.Config, error) {
	cfg := a.defaults
	for _, v := range []*int{req.Precision, req.MaxWholeDigits} {
		if v != nil && *v > maxRequestedDigits {
			return cfg, fmt.Errorf("%w: at most %d digits", expression.ErrInvalidConfig, maxRequestedDigits)
		}
	}
	if req.Precision != nil {
		cfg.Precision = *req.Precision
	}
	if req.MaxWholeDigits != nil {
		cfg.MaxWholeDigits = *req.MaxWholeDigits
	}
	if req.Strategy != "" {
		s, err := expression.ParseStrategy(req.Strategy)
		if err != nil {
			return cfg, err
		}
		cfg.Strategy = s
	}
	return cfg, cfg.Validate()
}

// decodeOptional decodes a JSON body that may be absent.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Package turn orchestrates one conversation turn: build the system
// instruction, consult the decision model, execute any tool calls it asks for,
// and persist the exchange into bounded history.
package turn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ananta-systems/ai-inbox/internal/booking"
	"github.com/ananta-systems/ai-inbox/internal/business"
	"github.com/ananta-systems/ai-inbox/internal/dialogue"
	"github.com/ananta-systems/ai-inbox/internal/oracle"
	"github.com/ananta-systems/ai-inbox/internal/prompt"
	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

const (
	// apologyReply is returned verbatim whenever the decision model fails.
	apologyReply = "I'm sorry, I'm having a little trouble right now. Please try again in a moment."
	// neutralReply covers the model returning empty or malformed output.
	neutralReply = "How else can I help?"

	defaultOracleTimeout = 60 * time.Second
	defaultMaxTokens     = 1024
	defaultTemperature   = 0.7
)

// Request is one inbound customer message plus the business it belongs to.
type Request struct {
	UserID      string           `json:"user_id"`
	MessageText string           `json:"message_text"`
	Business    business.Context `json:"business"`
}

// Response is the reply to send back to the customer.
type Response struct {
	Reply string `json:"reply"`
}

// Processor is the contract the HTTP layer and queue dispatcher program
// against.
type Processor interface {
	ProcessTurn(ctx context.Context, req Request) (*Response, error)
}

// ToolRouter is the slice of booking.Router the engine needs.
type ToolRouter interface {
	CheckAvailability(ctx context.Context, desc business.ProviderDescriptor, req booking.AvailabilityRequest) (*booking.AvailabilityResult, error)
	CreateAppointment(ctx context.Context, desc business.ProviderDescriptor, req booking.AppointmentRequest) (*booking.BookingResult, error)
}

// Engine implements Processor. Turns for the same user are serialized; turns
// for different users run concurrently.
type Engine struct {
	oracle oracle.Client
	store  dialogue.Store
	router ToolRouter
	logger *logging.Logger
	tracer trace.Tracer

	locks         *dialogue.KeyedMutex
	oracleTimeout time.Duration
	maxTokens     int32
	temperature   float32
	now           func() time.Time
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithOracleTimeout bounds each decision model call.
func WithOracleTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.oracleTimeout = d
		}
	}
}

// WithMaxTokens caps the model's output length.
func WithMaxTokens(n int32) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires a turn engine.
func NewEngine(oracleClient oracle.Client, store dialogue.Store, router ToolRouter, logger *logging.Logger, opts ...EngineOption) *Engine {
	if oracleClient == nil {
		panic("turn: oracle client cannot be nil")
	}
	if store == nil {
		panic("turn: dialogue store cannot be nil")
	}
	if router == nil {
		panic("turn: tool router cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	e := &Engine{
		oracle:        oracleClient,
		store:         store,
		router:        router,
		logger:        logger,
		tracer:        otel.Tracer("aiinbox.internal.turn"),
		locks:         dialogue.NewKeyedMutex(),
		oracleTimeout: defaultOracleTimeout,
		maxTokens:     defaultMaxTokens,
		temperature:   defaultTemperature,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessTurn runs one full turn. A decision model failure yields the apology
// reply with a nil error; the inbound user turn is still persisted so the
// customer can continue the conversation.
func (e *Engine) ProcessTurn(ctx context.Context, req Request) (*Response, error) {
	if req.UserID == "" {
		return nil, errors.New("turn: user id is required")
	}
	if req.MessageText == "" {
		return nil, errors.New("turn: message text is required")
	}

	ctx, span := e.tracer.Start(ctx, "turn.process")
	defer span.End()

	e.locks.Lock(req.UserID)
	defer e.locks.Unlock(req.UserID)

	started := e.now()
	resp, outcome, err := e.processLocked(ctx, req)
	turnLatency.WithLabelValues(outcome).Observe(e.now().Sub(started).Seconds())
	if err != nil {
		span.RecordError(err)
	}
	return resp, err
}

func (e *Engine) processLocked(ctx context.Context, req Request) (*Response, string, error) {
	system := prompt.Build(req.Business, e.now())

	history, err := e.store.History(ctx, req.UserID)
	if err != nil {
		return nil, outcomePersistError, fmt.Errorf("turn: load history: %w", err)
	}

	messages := make([]oracle.Message, 0, len(history)+1)
	for _, t := range history {
		messages = append(messages, oracle.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, oracle.Message{Role: oracle.RoleUser, Content: req.MessageText})

	decision, err := e.decide(ctx, system, messages)
	if err != nil {
		return e.apologize(ctx, req, "decide", err)
	}

	var reply string
	switch decision.Kind {
	case oracle.DecisionFinalText:
		reply = decision.Text
	case oracle.DecisionToolRequests:
		messages, err = e.runTools(ctx, req.Business, messages, decision.Requests)
		if err != nil {
			// runTools only fails on context cancellation between tool steps.
			return nil, outcomeCanceled, err
		}
		reply, err = e.synthesize(ctx, system, messages)
		if err != nil {
			return e.apologize(ctx, req, "synthesize", err)
		}
	}
	if reply == "" {
		reply = neutralReply
	}

	if err := e.persistExchange(ctx, req.UserID, req.MessageText, reply); err != nil {
		return nil, outcomePersistError, err
	}
	return &Response{Reply: reply}, outcomeSuccess, nil
}

func (e *Engine) decide(ctx context.Context, system string, messages []oracle.Message) (oracle.Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, e.oracleTimeout)
	defer cancel()

	decision, err := e.oracle.Decide(ctx, oracle.DecideRequest{
		System:      system,
		Messages:    messages,
		Tools:       ToolSpecs(),
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	oracleCalls.WithLabelValues("decide", statusLabel(err)).Inc()
	return decision, err
}

func (e *Engine) synthesize(ctx context.Context, system string, messages []oracle.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.oracleTimeout)
	defer cancel()

	text, err := e.oracle.Synthesize(ctx, oracle.SynthesizeRequest{
		System:      system,
		Messages:    messages,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	oracleCalls.WithLabelValues("synthesize", statusLabel(err)).Inc()
	return text, err
}

// runTools executes the model's requests in order, folding each request and
// its result into the transcript before the next one runs. A canceled context
// aborts between steps so no half-executed exchange is synthesized.
func (e *Engine) runTools(ctx context.Context, biz business.Context, messages []oracle.Message, requests []oracle.ToolRequest) ([]oracle.Message, error) {
	desc := biz.ProviderDescriptor()
	for _, toolReq := range requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		messages = append(messages, oracle.Message{
			Role:     oracle.RoleToolRequest,
			Requests: []oracle.ToolRequest{toolReq},
		})

		result := e.executeTool(ctx, desc, toolReq)
		messages = append(messages, oracle.Message{
			Role:   oracle.RoleToolResult,
			Result: &result,
		})
	}
	return messages, nil
}

// executeTool runs one tool call. Provider failures are folded into the
// result content as structured data so the model can explain them; they never
// abort the turn.
func (e *Engine) executeTool(ctx context.Context, desc business.ProviderDescriptor, toolReq oracle.ToolRequest) oracle.ToolResult {
	var (
		payload any
		err     error
	)

	switch toolReq.Name {
	case ToolCheckAvailability:
		payload, err = e.router.CheckAvailability(ctx, desc, booking.AvailabilityRequest{
			ServiceName: argString(toolReq.Arguments, "service_name"),
			Date:        argString(toolReq.Arguments, "date"),
		})
	case ToolCreateAppointment:
		payload, err = e.router.CreateAppointment(ctx, desc, booking.AppointmentRequest{
			ServiceName:   argString(toolReq.Arguments, "service_name"),
			Date:          argString(toolReq.Arguments, "date"),
			Time:          argString(toolReq.Arguments, "time"),
			CustomerName:  argString(toolReq.Arguments, "customer_name"),
			CustomerEmail: argString(toolReq.Arguments, "customer_email"),
		})
	default:
		err = &booking.ProviderError{
			Kind:    booking.ErrorUnsupported,
			Message: fmt.Sprintf("unknown tool %q", toolReq.Name),
		}
	}
	toolExecutions.WithLabelValues(toolReq.Name, statusLabel(err)).Inc()

	content := marshalToolOutcome(payload, err)
	if err != nil {
		e.logger.Warn("tool execution failed",
			"tool", toolReq.Name,
			"provider", desc.ProviderID,
			"error", err.Error(),
		)
	}
	return oracle.ToolResult{ID: toolReq.ID, Name: toolReq.Name, Content: content}
}

func marshalToolOutcome(payload any, err error) string {
	if err != nil {
		var perr *booking.ProviderError
		if !errors.As(err, &perr) {
			perr = &booking.ProviderError{
				Kind:    booking.ErrorUpstreamRejected,
				Message: err.Error(),
			}
		}
		data, _ := json.Marshal(map[string]any{"error": perr})
		return string(data)
	}
	data, jsonErr := json.Marshal(payload)
	if jsonErr != nil {
		return `{"error":{"kind":"upstream_rejected","message":"unreadable tool result"}}`
	}
	return string(data)
}

// apologize handles a decision model failure: the user's message is still
// persisted so the conversation can resume, and the fixed apology goes back
// with a nil error.
func (e *Engine) apologize(ctx context.Context, req Request, stage string, cause error) (*Response, string, error) {
	e.logger.Error("decision model failed",
		"stage", stage,
		"user_id", req.UserID,
		"error", cause.Error(),
	)
	if err := e.persistTurns(ctx, req.UserID, dialogue.Turn{Role: dialogue.RoleUser, Content: req.MessageText}); err != nil {
		return nil, outcomePersistError, err
	}
	return &Response{Reply: apologyReply}, outcomeOracleFailure, nil
}

func (e *Engine) persistExchange(ctx context.Context, userID, userText, reply string) error {
	return e.persistTurns(ctx, userID,
		dialogue.Turn{Role: dialogue.RoleUser, Content: userText},
		dialogue.Turn{Role: dialogue.RoleAssistant, Content: reply},
	)
}

func (e *Engine) persistTurns(ctx context.Context, userID string, turns ...dialogue.Turn) error {
	if err := e.store.Append(ctx, userID, turns...); err != nil {
		return fmt.Errorf("turn: persist turns: %w", err)
	}
	if err := e.store.Trim(ctx, userID, dialogue.MaxTurns); err != nil {
		return fmt.Errorf("turn: trim history: %w", err)
	}
	return nil
}

func argString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

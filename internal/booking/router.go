package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ananta-systems/ai-inbox/internal/business"
	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

const defaultCallTimeout = 20 * time.Second

// Router holds the adapter registry and dispatches calls to the provider a
// business's descriptor names. An unknown provider id is reported as an
// ErrorUnsupported ProviderError, never a panic.
type Router struct {
	providers   map[string]Provider
	callTimeout time.Duration
	logger      *logging.Logger
}

// RouterOption customizes a Router.
type RouterOption func(*Router)

// WithCallTimeout bounds each vendor call.
func WithCallTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// NewRouter registers the given providers keyed by their Name().
func NewRouter(logger *logging.Logger, providers []Provider, opts ...RouterOption) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Router{
		providers:   make(map[string]Provider, len(providers)),
		callTimeout: defaultCallTimeout,
		logger:      logger,
	}
	for _, p := range providers {
		r.providers[strings.ToLower(p.Name())] = p
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CheckAvailability routes an availability lookup to the configured provider.
func (r *Router) CheckAvailability(ctx context.Context, desc business.ProviderDescriptor, req AvailabilityRequest) (*AvailabilityResult, error) {
	provider, perr := r.resolve(desc)
	if perr != nil {
		return nil, perr
	}

	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	result, err := provider.CheckAvailability(ctx, desc.Credential, req)
	if err != nil {
		return nil, r.classify(provider.Name(), "check_availability", err)
	}
	return result, nil
}

// CreateAppointment routes a booking to the configured provider.
func (r *Router) CreateAppointment(ctx context.Context, desc business.ProviderDescriptor, req AppointmentRequest) (*BookingResult, error) {
	provider, perr := r.resolve(desc)
	if perr != nil {
		return nil, perr
	}

	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	result, err := provider.CreateAppointment(ctx, desc.Credential, req)
	if err != nil {
		return nil, r.classify(provider.Name(), "create_appointment", err)
	}
	return result, nil
}

func (r *Router) resolve(desc business.ProviderDescriptor) (Provider, *ProviderError) {
	id := strings.ToLower(strings.TrimSpace(desc.ProviderID))
	if id == "" {
		return nil, &ProviderError{
			Kind:     ErrorUnsupported,
			Provider: "",
			Message:  "business has no booking provider configured",
		}
	}
	provider, ok := r.providers[id]
	if !ok {
		return nil, &ProviderError{
			Kind:     ErrorUnsupported,
			Provider: id,
			Message:  fmt.Sprintf("no adapter registered for provider %q", id),
		}
	}
	return provider, nil
}

// classify folds any adapter failure into the ProviderError taxonomy.
func (r *Router) classify(providerName, operation string, err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}

	kind := ErrorUpstreamRejected
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrorTimeout
	}
	r.logger.Warn("provider call failed",
		"provider", providerName,
		"operation", operation,
		"kind", string(kind),
		"error", err.Error(),
	)
	return &ProviderError{
		Kind:     kind,
		Provider: providerName,
		Message:  err.Error(),
	}
}

package oracle

import (
	"context"

	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

// FallbackClient wraps a primary client with a secondary provider that is
// tried when the primary fails. With no fallback configured it behaves like
// the primary alone.
type FallbackClient struct {
	primary  Client
	fallback Client
	logger   *logging.Logger
}

// NewFallbackClient builds the wrapper.
func NewFallbackClient(primary, fallback Client, logger *logging.Logger) *FallbackClient {
	if primary == nil {
		panic("oracle: primary client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{primary: primary, fallback: fallback, logger: logger}
}

// Decide tries the primary, then the fallback.
func (c *FallbackClient) Decide(ctx context.Context, req DecideRequest) (Decision, error) {
	decision, err := c.primary.Decide(ctx, req)
	if err == nil {
		return decision, nil
	}

	c.logger.Warn("primary oracle failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)
	if c.fallback == nil {
		return Decision{}, err
	}

	decision, fallbackErr := c.fallback.Decide(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback oracle also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return Decision{}, fallbackErr
	}
	return decision, nil
}

// Synthesize tries the primary, then the fallback.
func (c *FallbackClient) Synthesize(ctx context.Context, req SynthesizeRequest) (string, error) {
	text, err := c.primary.Synthesize(ctx, req)
	if err == nil {
		return text, nil
	}

	c.logger.Warn("primary oracle failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)
	if c.fallback == nil {
		return "", err
	}

	text, fallbackErr := c.fallback.Synthesize(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback oracle also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return "", fallbackErr
	}
	return text, nil
}

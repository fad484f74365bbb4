package llm

import (
	"context"

	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// FallbackClient wraps a primary client with a secondary provider that is
// tried once when the primary fails.
type FallbackClient struct {
	primary  Client
	fallback Client
	logger   *logging.Logger
}

// NewFallbackClient returns primary unchanged when fallback is nil.
func NewFallbackClient(primary, fallback Client, logger *logging.Logger) Client {
	if primary == nil {
		panic("llm: primary client cannot be nil")
	}
	if fallback == nil {
		return primary
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	c.logger.Warn("primary llm failed, attempting fallback", "error", err.Error())

	resp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback llm also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return Response{}, fallbackErr
	}
	c.logger.Info("fallback llm succeeded after primary failure")
	return resp, nil
}

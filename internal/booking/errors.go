package booking

import "fmt"

// ErrorKind classifies provider failures so the conversation layer can feed
// them back to the model as data rather than abort the turn.
type ErrorKind string

const (
	// ErrorUnsupported means no adapter is registered for the business's
	// configured provider.
	ErrorUnsupported ErrorKind = "unsupported"
	// ErrorTimeout means the vendor did not answer within the deadline.
	ErrorTimeout ErrorKind = "timeout"
	// ErrorUpstreamRejected means the vendor answered with a failure.
	ErrorUpstreamRejected ErrorKind = "upstream_rejected"
)

// ProviderError is the only error type routed calls return.
type ProviderError struct {
	Kind     ErrorKind `json:"kind"`
	Provider string    `json:"provider"`
	Message  string    `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("booking: %s provider %q: %s", e.Kind, e.Provider, e.Message)
}

// Package dialogue persists bounded per-user conversation history. Only user
// and assistant turns are stored; tool traffic inside a turn is transient.
package dialogue

import "context"

// Roles for stored turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxTurns is the number of most-recent turns retained per user.
const MaxTurns = 10

// Turn is one stored utterance.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store is the persistence contract for dialogue history. History returns
// turns oldest-first; an unknown user yields an empty slice, not an error.
type Store interface {
	History(ctx context.Context, userID string) ([]Turn, error)
	Append(ctx context.Context, userID string, turns ...Turn) error
	Trim(ctx context.Context, userID string, max int) error
}

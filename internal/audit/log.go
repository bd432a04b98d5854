// Package audit writes a durable record of every inbound and outbound message
// to Postgres. The record is for operators; the conversation itself lives in
// the dialogue store.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

// Directions for logged messages.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// DB is the slice of pgxpool.Pool the log needs. pgxmock satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Entry is one logged message.
type Entry struct {
	ID        string
	UserID    string
	Direction string
	Text      string
	CreatedAt time.Time
}

// Log records message traffic.
type Log struct {
	db     DB
	logger *logging.Logger
	now    func() time.Time
}

// NewLog builds an audit log over the given database.
func NewLog(db DB, logger *logging.Logger) *Log {
	if db == nil {
		panic("audit: db is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Log{db: db, logger: logger, now: time.Now}
}

const insertEntrySQL = `INSERT INTO message_log (id, user_id, direction, text, created_at) VALUES ($1, $2, $3, $4, $5)`

// Record writes one entry. Missing ID and CreatedAt are filled in.
func (l *Log) Record(ctx context.Context, entry Entry) error {
	if entry.UserID == "" {
		return errors.New("audit: user id is required")
	}
	if entry.Direction != DirectionInbound && entry.Direction != DirectionOutbound {
		return fmt.Errorf("audit: invalid direction %q", entry.Direction)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now().UTC()
	}

	_, err := l.db.Exec(ctx, insertEntrySQL,
		entry.ID, entry.UserID, entry.Direction, entry.Text, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit: insert message log entry: %w", err)
	}
	return nil
}

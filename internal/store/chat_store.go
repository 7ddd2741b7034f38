package store

import (
	"context"
	"time"
)

type ChatStore struct {
	db DB
}

type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	Seq       int64     `db:"seq" json:"-"`
	UserID    string    `db:"user_id" json:"user_id"`
	Role      string    `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ChatMessageInput struct {
	ID        string
	UserID    string
	Role      string
	Content   string
	CreatedAt time.Time
}

func NewChatStore(db DB) *ChatStore {
	return &ChatStore{db: db}
}

func (s *ChatStore) Insert(ctx context.Context, input ChatMessageInput) error {
	query := `
		INSERT INTO chat_messages (id, user_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		input.ID, input.UserID, input.Role, input.Content, input.CreatedAt,
	)
	return err
}

// ListRecent returns the most recent limit messages in conversation order,
// oldest first.
func (s *ChatStore) ListRecent(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	var rows []ChatMessage
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, seq, user_id, role, content, created_at
		FROM (
			SELECT id, seq, user_id, role, content, created_at
			FROM chat_messages
			WHERE user_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, seq ASC
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/queryloom/queryloom/internal/models"
)

// Chat history is append-only: sessions and messages are created and read,
// never deleted through this layer.

func (s *Store) CreateChat(ctx context.Context) (*models.ChatSession, error) {
	id := uuid.NewString()
	var session models.ChatSession
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chat_sessions (id) VALUES ($1) RETURNING id, title, created_at`, id).
		Scan(&session.ID, &session.Title, &session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &session, nil
}

func (s *Store) ListChats(ctx context.Context) ([]models.ChatSession, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, created_at FROM chat_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var out []models.ChatSession
	for rows.Next() {
		var c models.ChatSession
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) RenameChat(ctx context.Context, chatID, title string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE chat_sessions SET title = $2 WHERE id = $1`, chatID, title)
	if err != nil {
		return fmt.Errorf("rename chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	// Distinguish "unknown chat" from "chat with no messages yet".
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_sessions WHERE id = $1)`, chatID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check chat: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, role, type, content, created_at
		   FROM chat_messages WHERE session_id = $1 ORDER BY created_at`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var raw []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Type, &raw, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal(raw, &m.Content); err != nil {
			return nil, fmt.Errorf("decode message %s content: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) AddMessage(ctx context.Context, chatID string, req models.AddMessageRequest) (string, error) {
	raw, err := json.Marshal(req.Content)
	if err != nil {
		return "", fmt.Errorf("encode message content: %w", err)
	}

	id := uuid.NewString()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, session_id, role, type, content)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, chatID, req.Role, req.Type, raw)
	if err != nil {
		// FK violation means the session does not exist
		var exists bool
		if qErr := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM chat_sessions WHERE id = $1)`, chatID).Scan(&exists); qErr == nil && !exists {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("add message: %w", err)
	}
	return id, nil
}

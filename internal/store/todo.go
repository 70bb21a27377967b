package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Todo is a single untimed action item.
type Todo struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Content     string     `db:"content"`
	CreatedAt   time.Time  `db:"created_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// CreateTodo inserts a new open todo for the user.
func (s *Store) CreateTodo(ctx context.Context, userID, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("todo content must not be empty")
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, user_id, content, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, content, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create todo: %w", err)
	}
	return id, nil
}

// ListOpenTodos returns all uncompleted todos, oldest first.
func (s *Store) ListOpenTodos(ctx context.Context) ([]Todo, error) {
	var todos []Todo
	err := s.db.SelectContext(ctx, &todos, `
		SELECT * FROM todos WHERE completed_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list open todos: %w", err)
	}
	return todos, nil
}

// CompleteTodo stamps a todo as done.
func (s *Store) CompleteTodo(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE todos SET completed_at = ? WHERE id = ? AND completed_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete todo %s: %w", id, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("todo %s not found or already complete", id)
	}
	return nil
}

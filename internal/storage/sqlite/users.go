package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/pkg/logger"
)

func (c *Client) InsertUser(user *models.User) error {
	query := `INSERT INTO users (id, email, password_hash, name, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	logger.Debug("User inserted", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return nil
}

func (c *Client) GetUser(id string) (*models.User, error) {
	query := `SELECT id, email, password_hash, name, role, created_at FROM users WHERE id = ?`
	return c.scanUser(c.db.QueryRow(query, id))
}

func (c *Client) GetUserByEmail(email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, name, role, created_at FROM users WHERE email = ?`
	return c.scanUser(c.db.QueryRow(query, email))
}

func (c *Client) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var createdAt int64

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/classpilot/backend/internal/storage/models"
)

func (c *Client) UpsertStandard(standard *models.Standard) error {
	query := `
		INSERT INTO standards (id, code, description, grade, subject, system)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code, system) DO UPDATE SET
			description = excluded.description,
			grade = excluded.grade,
			subject = excluded.subject
	`

	_, err := c.db.Exec(
		query,
		standard.ID,
		standard.Code,
		standard.Description,
		standard.Grade,
		standard.Subject,
		standard.System,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert standard: %w", err)
	}
	return nil
}

func (c *Client) GetStandard(id string) (*models.Standard, error) {
	query := `SELECT id, code, description, grade, subject, system FROM standards WHERE id = ?`
	return c.scanStandard(c.db.QueryRow(query, id))
}

func (c *Client) GetStandardByCode(code, system string) (*models.Standard, error) {
	query := `SELECT id, code, description, grade, subject, system FROM standards WHERE code = ? AND system = ?`
	return c.scanStandard(c.db.QueryRow(query, code, system))
}

func (c *Client) ListStandards(grade, subject, system string) ([]models.Standard, error) {
	query := `SELECT id, code, description, grade, subject, system FROM standards WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if grade != "" {
		query += ` AND grade = ?`
		args = append(args, grade)
	}
	if subject != "" {
		query += ` AND subject = ?`
		args = append(args, subject)
	}
	if system != "" {
		query += ` AND system = ?`
		args = append(args, system)
	}
	query += ` ORDER BY code`

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list standards: %w", err)
	}
	defer rows.Close()

	var standards []models.Standard
	for rows.Next() {
		var s models.Standard
		if err := rows.Scan(&s.ID, &s.Code, &s.Description, &s.Grade, &s.Subject, &s.System); err != nil {
			return nil, fmt.Errorf("failed to scan standard: %w", err)
		}
		standards = append(standards, s)
	}
	return standards, rows.Err()
}

func (c *Client) scanStandard(row *sql.Row) (*models.Standard, error) {
	var s models.Standard
	err := row.Scan(&s.ID, &s.Code, &s.Description, &s.Grade, &s.Subject, &s.System)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get standard: %w", err)
	}
	return &s, nil
}

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

func (c *Client) InsertTopic(topic *models.WeeklyTopic) error {
	query := `INSERT INTO weekly_topics (id, course_id, week_number, title, standard_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		topic.ID,
		topic.CourseID,
		topic.WeekNumber,
		topic.Title,
		topic.StandardID,
		topic.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert topic: %w", err)
	}

	logger.Debug("Weekly topic inserted",
		zap.String("topic_id", topic.ID),
		zap.String("course_id", topic.CourseID),
		zap.Int("week", topic.WeekNumber),
	)
	return nil
}

func (c *Client) GetTopic(id string) (*models.WeeklyTopic, error) {
	query := `SELECT id, course_id, week_number, title, standard_id, created_at FROM weekly_topics WHERE id = ?`
	return c.scanTopic(c.db.QueryRow(query, id))
}

// GetLatestTopic returns the highest-week topic of a course, used to assemble
// the tutoring CourseContext.
func (c *Client) GetLatestTopic(courseID string) (*models.WeeklyTopic, error) {
	query := `
		SELECT id, course_id, week_number, title, standard_id, created_at
		FROM weekly_topics
		WHERE course_id = ?
		ORDER BY week_number DESC, created_at DESC
		LIMIT 1
	`
	return c.scanTopic(c.db.QueryRow(query, courseID))
}

func (c *Client) ListTopicsByCourse(courseID string) ([]models.WeeklyTopic, error) {
	query := `SELECT id, course_id, week_number, title, standard_id, created_at FROM weekly_topics WHERE course_id = ? ORDER BY week_number`
	rows, err := c.db.Query(query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var topics []models.WeeklyTopic
	for rows.Next() {
		var topic models.WeeklyTopic
		var createdAt int64
		err := rows.Scan(&topic.ID, &topic.CourseID, &topic.WeekNumber, &topic.Title, &topic.StandardID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topic.CreatedAt = time.Unix(createdAt, 0)
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

func (c *Client) UpdateTopic(topic *models.WeeklyTopic) error {
	query := `UPDATE weekly_topics SET week_number = ?, title = ?, standard_id = ? WHERE id = ?`
	result, err := c.db.Exec(query, topic.WeekNumber, topic.Title, topic.StandardID, topic.ID)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) DeleteTopic(id string) error {
	result, err := c.db.Exec(`DELETE FROM weekly_topics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) scanTopic(row *sql.Row) (*models.WeeklyTopic, error) {
	var topic models.WeeklyTopic
	var createdAt int64

	err := row.Scan(
		&topic.ID,
		&topic.CourseID,
		&topic.WeekNumber,
		&topic.Title,
		&topic.StandardID,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	topic.CreatedAt = time.Unix(createdAt, 0)
	return &topic, nil
}

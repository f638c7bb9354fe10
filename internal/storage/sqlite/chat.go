package sqlite

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/pkg/logger"
)

func (c *Client) InsertChatMessage(msg *models.ChatMessage) error {
	query := `INSERT INTO chat_messages (id, course_id, student_id, user_message, tutor_reply, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		msg.ID,
		msg.CourseID,
		msg.StudentID,
		msg.UserMessage,
		msg.TutorReply,
		msg.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}

	logger.Debug("Chat message inserted",
		zap.String("message_id", msg.ID),
		zap.String("course_id", msg.CourseID),
	)
	return nil
}

func (c *Client) ListChatMessages(courseID, studentID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, course_id, student_id, user_message, tutor_reply, created_at
		FROM chat_messages
		WHERE course_id = ? AND student_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := c.db.Query(query, courseID, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		var createdAt int64
		err := rows.Scan(&msg.ID, &msg.CourseID, &msg.StudentID, &msg.UserMessage, &msg.TutorReply, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msg.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

package sqlite

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/pkg/logger"
)

// ErrDuplicateMaterial reports that identical content already exists for the
// course (same content hash).
var ErrDuplicateMaterial = fmt.Errorf("material with identical content already exists")

func (c *Client) InsertMaterial(material *models.Material) error {
	query := `INSERT INTO materials (id, course_id, title, content, content_type, content_hash, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		material.ID,
		material.CourseID,
		material.Title,
		material.Content,
		material.ContentType,
		material.ContentHash,
		material.CreatedAt.Unix(),
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateMaterial
		}
		return fmt.Errorf("failed to insert material: %w", err)
	}

	logger.Debug("Material inserted",
		zap.String("material_id", material.ID),
		zap.String("course_id", material.CourseID),
	)
	return nil
}

func (c *Client) ListMaterialsByCourse(courseID string) ([]models.Material, error) {
	query := `SELECT id, course_id, title, content, content_type, content_hash, created_at FROM materials WHERE course_id = ? ORDER BY created_at`
	rows, err := c.db.Query(query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	defer rows.Close()

	var materials []models.Material
	for rows.Next() {
		var m models.Material
		var createdAt int64
		err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Content, &m.ContentType, &m.ContentHash, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		m.CreatedAt = time.Unix(createdAt, 0)
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (c *Client) DeleteMaterial(courseID, id string) error {
	result, err := c.db.Exec(`DELETE FROM materials WHERE id = ? AND course_id = ?`, id, courseID)
	if err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

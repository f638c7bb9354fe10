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

func (c *Client) InsertCourse(course *models.Course) error {
	query := `
		INSERT INTO courses (id, teacher_id, name, subject, grade_level, standards_system, join_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		course.ID,
		course.TeacherID,
		course.Name,
		course.Subject,
		course.GradeLevel,
		course.StandardsSystem,
		course.JoinCode,
		course.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}

	logger.Debug("Course inserted", zap.String("course_id", course.ID), zap.String("name", course.Name))
	return nil
}

func (c *Client) GetCourse(id string) (*models.Course, error) {
	query := `SELECT id, teacher_id, name, subject, grade_level, standards_system, join_code, created_at FROM courses WHERE id = ?`
	return c.scanCourse(c.db.QueryRow(query, id))
}

func (c *Client) GetCourseByJoinCode(joinCode string) (*models.Course, error) {
	query := `SELECT id, teacher_id, name, subject, grade_level, standards_system, join_code, created_at FROM courses WHERE join_code = ?`
	return c.scanCourse(c.db.QueryRow(query, joinCode))
}

func (c *Client) ListCoursesByTeacher(teacherID string) ([]models.Course, error) {
	query := `SELECT id, teacher_id, name, subject, grade_level, standards_system, join_code, created_at FROM courses WHERE teacher_id = ? ORDER BY created_at DESC`
	rows, err := c.db.Query(query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()
	return scanCourses(rows)
}

func (c *Client) ListCoursesByStudent(studentID string) ([]models.Course, error) {
	query := `
		SELECT c.id, c.teacher_id, c.name, c.subject, c.grade_level, c.standards_system, c.join_code, c.created_at
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.student_id = ?
		ORDER BY c.created_at DESC
	`
	rows, err := c.db.Query(query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled courses: %w", err)
	}
	defer rows.Close()
	return scanCourses(rows)
}

func (c *Client) DeleteCourse(id string) error {
	result, err := c.db.Exec(`DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) InsertEnrollment(enrollment *models.Enrollment) error {
	query := `INSERT INTO enrollments (id, course_id, student_id, created_at) VALUES (?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		enrollment.ID,
		enrollment.CourseID,
		enrollment.StudentID,
		enrollment.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}

	logger.Debug("Enrollment inserted",
		zap.String("course_id", enrollment.CourseID),
		zap.String("student_id", enrollment.StudentID),
	)
	return nil
}

func (c *Client) IsEnrolled(courseID, studentID string) (bool, error) {
	var count int
	err := c.db.QueryRow(
		`SELECT COUNT(1) FROM enrollments WHERE course_id = ? AND student_id = ?`,
		courseID, studentID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}

func (c *Client) ListStudentsByCourse(courseID string) ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.name, u.role, u.created_at
		FROM users u
		JOIN enrollments e ON e.student_id = u.id
		WHERE e.course_id = ?
		ORDER BY u.name
	`
	rows, err := c.db.Query(query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []models.User
	for rows.Next() {
		var user models.User
		var createdAt int64
		if err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		user.CreatedAt = time.Unix(createdAt, 0)
		students = append(students, user)
	}
	return students, rows.Err()
}

func (c *Client) scanCourse(row *sql.Row) (*models.Course, error) {
	var course models.Course
	var createdAt int64

	err := row.Scan(
		&course.ID,
		&course.TeacherID,
		&course.Name,
		&course.Subject,
		&course.GradeLevel,
		&course.StandardsSystem,
		&course.JoinCode,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	course.CreatedAt = time.Unix(createdAt, 0)
	return &course, nil
}

func scanCourses(rows *sql.Rows) ([]models.Course, error) {
	var courses []models.Course
	for rows.Next() {
		var course models.Course
		var createdAt int64
		err := rows.Scan(
			&course.ID,
			&course.TeacherID,
			&course.Name,
			&course.Subject,
			&course.GradeLevel,
			&course.StandardsSystem,
			&course.JoinCode,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		course.CreatedAt = time.Unix(createdAt, 0)
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

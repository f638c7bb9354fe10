package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/classpilot/backend/pkg/logger"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	return c.db.Ping()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('teacher', 'student')),
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		teacher_id TEXT NOT NULL,
		name TEXT NOT NULL,
		subject TEXT NOT NULL,
		grade_level TEXT NOT NULL,
		standards_system TEXT NOT NULL DEFAULT 'Common Core',
		join_code TEXT UNIQUE NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (teacher_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_courses_teacher ON courses(teacher_id);
	CREATE INDEX IF NOT EXISTS idx_courses_join_code ON courses(join_code);

	CREATE TABLE IF NOT EXISTS enrollments (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (course_id, student_id),
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE,
		FOREIGN KEY (student_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_id);
	CREATE INDEX IF NOT EXISTS idx_enrollments_student ON enrollments(student_id);

	CREATE TABLE IF NOT EXISTS standards (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		description TEXT NOT NULL,
		grade TEXT NOT NULL,
		subject TEXT NOT NULL,
		system TEXT NOT NULL,
		UNIQUE (code, system)
	);
	CREATE INDEX IF NOT EXISTS idx_standards_grade_subject ON standards(grade, subject);

	CREATE TABLE IF NOT EXISTS weekly_topics (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL,
		week_number INTEGER NOT NULL,
		title TEXT NOT NULL,
		standard_id TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE,
		FOREIGN KEY (standard_id) REFERENCES standards(id) ON DELETE SET NULL
	);
	CREATE INDEX IF NOT EXISTS idx_topics_course_week ON weekly_topics(course_id, week_number);

	CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		content_type TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (course_id, content_hash),
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_materials_course ON materials(course_id);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		user_message TEXT NOT NULL,
		tutor_reply TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE,
		FOREIGN KEY (student_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_chat_course_student ON chat_messages(course_id, student_id, created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

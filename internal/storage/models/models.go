package models

import "time"

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}

type Course struct {
	ID              string
	TeacherID       string
	Name            string
	Subject         string
	GradeLevel      string
	StandardsSystem string
	JoinCode        string
	CreatedAt       time.Time
}

type Enrollment struct {
	ID        string
	CourseID  string
	StudentID string
	CreatedAt time.Time
}

type WeeklyTopic struct {
	ID         string
	CourseID   string
	WeekNumber int
	Title      string
	StandardID *string
	CreatedAt  time.Time
}

type Material struct {
	ID          string
	CourseID    string
	Title       string
	Content     string
	ContentType string
	ContentHash string
	CreatedAt   time.Time
}

// ChatMessage is one completed tutor exchange. Rows are written once after
// the gateway returns and never updated.
type ChatMessage struct {
	ID          string
	CourseID    string
	StudentID   string
	UserMessage string
	TutorReply  string
	CreatedAt   time.Time
}

type Standard struct {
	ID          string
	Code        string
	Description string
	Grade       string
	Subject     string
	System      string
}

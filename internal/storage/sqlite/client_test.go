package sqlite

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpilot/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, client.InitSchema())
	t.Cleanup(func() { client.Close() })
	return client
}

func seedTeacher(t *testing.T, c *Client) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        uuid.New().String() + "@school.test",
		PasswordHash: "x",
		Name:         "Ms. Rivera",
		Role:         models.RoleTeacher,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, c.InsertUser(user))
	return user
}

func seedCourse(t *testing.T, c *Client, teacherID string) *models.Course {
	t.Helper()
	course := &models.Course{
		ID:              uuid.New().String(),
		TeacherID:       teacherID,
		Name:            "Math Morning",
		Subject:         "Mathematics",
		GradeLevel:      "4",
		StandardsSystem: "Common Core",
		JoinCode:        uuid.New().String()[:8],
		CreatedAt:       time.Now(),
	}
	require.NoError(t, c.InsertCourse(course))
	return course
}

func TestUserRoundTrip(t *testing.T) {
	c := newTestClient(t)
	teacher := seedTeacher(t, c)

	got, err := c.GetUserByEmail(teacher.Email)
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, got.ID)
	assert.Equal(t, models.RoleTeacher, got.Role)

	_, err = c.GetUser("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnrollmentUniqueness(t *testing.T) {
	c := newTestClient(t)
	teacher := seedTeacher(t, c)
	course := seedCourse(t, c, teacher.ID)

	student := &models.User{
		ID: uuid.New().String(), Email: "kid@school.test", PasswordHash: "x",
		Name: "Sam", Role: models.RoleStudent, CreatedAt: time.Now(),
	}
	require.NoError(t, c.InsertUser(student))

	enrollment := &models.Enrollment{
		ID: uuid.New().String(), CourseID: course.ID, StudentID: student.ID, CreatedAt: time.Now(),
	}
	require.NoError(t, c.InsertEnrollment(enrollment))

	dup := &models.Enrollment{
		ID: uuid.New().String(), CourseID: course.ID, StudentID: student.ID, CreatedAt: time.Now(),
	}
	assert.Error(t, c.InsertEnrollment(dup))

	enrolled, err := c.IsEnrolled(course.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

func TestLatestTopicPicksHighestWeek(t *testing.T) {
	c := newTestClient(t)
	teacher := seedTeacher(t, c)
	course := seedCourse(t, c, teacher.ID)

	for week, title := range map[int]string{1: "Place value", 3: "Fractions", 2: "Rounding"} {
		topic := &models.WeeklyTopic{
			ID: uuid.New().String(), CourseID: course.ID, WeekNumber: week,
			Title: title, CreatedAt: time.Now(),
		}
		require.NoError(t, c.InsertTopic(topic))
	}

	latest, err := c.GetLatestTopic(course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.WeekNumber)
	assert.Equal(t, "Fractions", latest.Title)
}

func TestMaterialDuplicateContentRejected(t *testing.T) {
	c := newTestClient(t)
	teacher := seedTeacher(t, c)
	course := seedCourse(t, c, teacher.ID)

	material := &models.Material{
		ID: uuid.New().String(), CourseID: course.ID, Title: "Handout",
		Content: "fractions", ContentType: "text", ContentHash: "h1", CreatedAt: time.Now(),
	}
	require.NoError(t, c.InsertMaterial(material))

	dup := &models.Material{
		ID: uuid.New().String(), CourseID: course.ID, Title: "Handout copy",
		Content: "fractions", ContentType: "text", ContentHash: "h1", CreatedAt: time.Now(),
	}
	assert.ErrorIs(t, c.InsertMaterial(dup), ErrDuplicateMaterial)
}

func TestChatMessagesNewestFirst(t *testing.T) {
	c := newTestClient(t)
	teacher := seedTeacher(t, c)
	course := seedCourse(t, c, teacher.ID)

	student := &models.User{
		ID: uuid.New().String(), Email: "kid2@school.test", PasswordHash: "x",
		Name: "Ana", Role: models.RoleStudent, CreatedAt: time.Now(),
	}
	require.NoError(t, c.InsertUser(student))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		msg := &models.ChatMessage{
			ID: uuid.New().String(), CourseID: course.ID, StudentID: student.ID,
			UserMessage: "q", TutorReply: "a", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, c.InsertChatMessage(msg))
	}

	messages, err := c.ListChatMessages(course.ID, student.ID, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].CreatedAt.After(messages[1].CreatedAt) || messages[0].CreatedAt.Equal(messages[1].CreatedAt))
}

func TestStandardUpsertAndLookup(t *testing.T) {
	c := newTestClient(t)

	standard := &models.Standard{
		ID: uuid.New().String(), Code: "4.NF.A.1", Description: "Equivalent fractions",
		Grade: "4", Subject: "Mathematics", System: "Common Core",
	}
	require.NoError(t, c.UpsertStandard(standard))

	standard.Description = "Explain equivalent fractions"
	require.NoError(t, c.UpsertStandard(standard))

	got, err := c.GetStandardByCode("4.NF.A.1", "Common Core")
	require.NoError(t, err)
	assert.Equal(t, "Explain equivalent fractions", got.Description)

	list, err := c.ListStandards("4", "Mathematics", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

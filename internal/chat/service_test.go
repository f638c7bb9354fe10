package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpilot/backend/internal/gateway"
	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/internal/storage/sqlite"
)

type fakeTutor struct {
	lastContext   gateway.CourseContext
	lastMaterials []gateway.MaterialContext
	reply         *gateway.TutorReply
	err           error
}

func (f *fakeTutor) GenerateTutorReply(_ context.Context, _ string, cc gateway.CourseContext, materials []gateway.MaterialContext) (*gateway.TutorReply, error) {
	f.lastContext = cc
	f.lastMaterials = materials
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func setup(t *testing.T, tutor TutorGateway) (*Service, *sqlite.Client, *models.Course, *models.User) {
	t.Helper()

	db, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	teacher := &models.User{
		ID: uuid.New().String(), Email: "t@school.test", PasswordHash: "x",
		Name: "Ms. Rivera", Role: models.RoleTeacher, CreatedAt: time.Now(),
	}
	require.NoError(t, db.InsertUser(teacher))

	course := &models.Course{
		ID: uuid.New().String(), TeacherID: teacher.ID, Name: "Math Morning",
		Subject: "Mathematics", GradeLevel: "K", StandardsSystem: "Common Core",
		JoinCode: "MATH1234", CreatedAt: time.Now(),
	}
	require.NoError(t, db.InsertCourse(course))

	student := &models.User{
		ID: uuid.New().String(), Email: "kid@school.test", PasswordHash: "x",
		Name: "Sam", Role: models.RoleStudent, CreatedAt: time.Now(),
	}
	require.NoError(t, db.InsertUser(student))
	require.NoError(t, db.InsertEnrollment(&models.Enrollment{
		ID: uuid.New().String(), CourseID: course.ID, StudentID: student.ID, CreatedAt: time.Now(),
	}))

	return NewService(db, tutor, nil, 0), db, course, student
}

func TestProcessMessageAssemblesContextAndPersists(t *testing.T) {
	tutor := &fakeTutor{reply: &gateway.TutorReply{
		Message:     "2 and 2 make 4.",
		Context:     "Counting practice.",
		Suggestions: []string{"Why?", "Show me.", "What about 3?"},
	}}
	svc, db, course, student := setup(t, tutor)

	standard := &models.Standard{
		ID: uuid.New().String(), Code: "K.CC.A.1", Description: "Count to 100",
		Grade: "K", Subject: "Mathematics", System: "Common Core",
	}
	require.NoError(t, db.UpsertStandard(standard))
	require.NoError(t, db.InsertTopic(&models.WeeklyTopic{
		ID: uuid.New().String(), CourseID: course.ID, WeekNumber: 2,
		Title: "Counting", StandardID: &standard.ID, CreatedAt: time.Now(),
	}))
	require.NoError(t, db.InsertMaterial(&models.Material{
		ID: uuid.New().String(), CourseID: course.ID, Title: "Counting chart",
		Content: "Numbers 1 to 20", ContentType: "text", ContentHash: "h", CreatedAt: time.Now(),
	}))

	resp, err := svc.ProcessMessage(context.Background(), course.ID, student.ID, "What is 2+2?")
	require.NoError(t, err)

	assert.Equal(t, "2 and 2 make 4.", resp.Message)
	assert.Len(t, resp.Suggestions, 3)

	assert.Equal(t, "Math Morning", tutor.lastContext.CourseName)
	assert.Equal(t, "K", tutor.lastContext.GradeLevel)
	assert.Equal(t, "Counting", tutor.lastContext.CurrentTopic)
	assert.Contains(t, tutor.lastContext.Standard, "K.CC.A.1")
	require.Len(t, tutor.lastMaterials, 1)
	assert.Equal(t, "Numbers 1 to 20", tutor.lastMaterials[0].Content)

	history, err := svc.History(course.ID, student.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "What is 2+2?", history[0].UserMessage)
	assert.Equal(t, "2 and 2 make 4.", history[0].TutorReply)
}

func TestProcessMessageWithoutTopicStillWorks(t *testing.T) {
	tutor := &fakeTutor{reply: &gateway.TutorReply{Message: "Hello!", Suggestions: []string{"a", "b", "c"}}}
	svc, _, course, student := setup(t, tutor)

	_, err := svc.ProcessMessage(context.Background(), course.ID, student.ID, "hi")
	require.NoError(t, err)
	assert.Empty(t, tutor.lastContext.CurrentTopic)
	assert.Empty(t, tutor.lastContext.Standard)
}

func TestProcessMessageRequiresEnrollment(t *testing.T) {
	tutor := &fakeTutor{reply: &gateway.TutorReply{Message: "hi"}}
	svc, db, course, _ := setup(t, tutor)

	outsider := &models.User{
		ID: uuid.New().String(), Email: "out@school.test", PasswordHash: "x",
		Name: "Out", Role: models.RoleStudent, CreatedAt: time.Now(),
	}
	require.NoError(t, db.InsertUser(outsider))

	_, err := svc.ProcessMessage(context.Background(), course.ID, outsider.ID, "hi")
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestProcessMessageUnknownCourse(t *testing.T) {
	svc, _, _, student := setup(t, &fakeTutor{})

	_, err := svc.ProcessMessage(context.Background(), "missing", student.ID, "hi")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestProcessMessagePropagatesGatewayError(t *testing.T) {
	tutor := &fakeTutor{err: gateway.ErrUpstream}
	svc, _, course, student := setup(t, tutor)

	_, err := svc.ProcessMessage(context.Background(), course.ID, student.ID, "hi")
	assert.ErrorIs(t, err, gateway.ErrUpstream)
}

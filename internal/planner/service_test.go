package planner

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

type fakeGateway struct {
	lessons []gateway.Lesson
	matches []gateway.StandardMatch
	err     error
}

func (f *fakeGateway) ExtractLessons(context.Context, string, gateway.ExtractionRequest) ([]gateway.Lesson, error) {
	return f.lessons, f.err
}

func (f *fakeGateway) MatchStandards(context.Context, string, string, string, string) ([]gateway.StandardMatch, error) {
	return f.matches, f.err
}

func setup(t *testing.T, gw PlannerGateway) (*Service, *sqlite.Client, *models.Course, *models.User) {
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
		Subject: "Mathematics", GradeLevel: "4", StandardsSystem: "Common Core",
		JoinCode: "MATH1234", CreatedAt: time.Now(),
	}
	require.NoError(t, db.InsertCourse(course))

	return NewService(db, gw, nil), db, course, teacher
}

func strptr(s string) *string { return &s }

func TestImportPacingGuideMapsDaysToWeeks(t *testing.T) {
	gw := &fakeGateway{lessons: []gateway.Lesson{
		{Day: 1, Title: "Place value"},
		{Day: 5, Title: "Rounding"},
		{Day: 6, Title: "Addition"},
		{Day: 11, Title: "Subtraction"},
	}}
	svc, db, course, teacher := setup(t, gw)

	topics, err := svc.ImportPacingGuide(context.Background(), course.ID, teacher.ID, "guide text")
	require.NoError(t, err)
	require.Len(t, topics, 4)

	assert.Equal(t, 1, topics[0].WeekNumber)
	assert.Equal(t, 1, topics[1].WeekNumber)
	assert.Equal(t, 2, topics[2].WeekNumber)
	assert.Equal(t, 3, topics[3].WeekNumber)

	persisted, err := db.ListTopicsByCourse(course.ID)
	require.NoError(t, err)
	assert.Len(t, persisted, 4)
}

func TestImportPacingGuideResolvesKnownStandards(t *testing.T) {
	gw := &fakeGateway{lessons: []gateway.Lesson{
		{Day: 1, Title: "Fractions", Standard: strptr("4.NF.A.1")},
		{Day: 2, Title: "Decimals", Standard: strptr("UNKNOWN.CODE")},
	}}
	svc, db, course, teacher := setup(t, gw)

	standard := &models.Standard{
		ID: uuid.New().String(), Code: "4.NF.A.1", Description: "Equivalent fractions",
		Grade: "4", Subject: "Mathematics", System: "Common Core",
	}
	require.NoError(t, db.UpsertStandard(standard))

	topics, err := svc.ImportPacingGuide(context.Background(), course.ID, teacher.ID, "guide text")
	require.NoError(t, err)
	require.Len(t, topics, 2)

	require.NotNil(t, topics[0].StandardID)
	assert.Equal(t, standard.ID, *topics[0].StandardID)
	assert.Nil(t, topics[1].StandardID, "unknown codes leave the topic unlinked")
}

func TestImportPacingGuideRejectsForeignCourse(t *testing.T) {
	svc, db, course, _ := setup(t, &fakeGateway{})

	other := &models.User{
		ID: uuid.New().String(), Email: "other@school.test", PasswordHash: "x",
		Name: "Mr. Chen", Role: models.RoleTeacher, CreatedAt: time.Now(),
	}
	require.NoError(t, db.InsertUser(other))

	_, err := svc.ImportPacingGuide(context.Background(), course.ID, other.ID, "guide text")
	assert.ErrorIs(t, err, ErrNotCourseOwner)
}

func TestAnalyzeTopicCanonicalizesKnownCodes(t *testing.T) {
	gw := &fakeGateway{matches: []gateway.StandardMatch{
		{ID: strptr("4.NF.A.1"), Description: "model guess", Grade: "4", Subject: "Math", Confidence: 1},
		{ID: nil, Description: "novel candidate", Grade: "4", Subject: "Math", Confidence: 1},
	}}
	svc, db, _, _ := setup(t, gw)

	standard := &models.Standard{
		ID: uuid.New().String(), Code: "4.NF.A.1", Description: "Explain equivalent fractions",
		Grade: "4", Subject: "Mathematics", System: "Common Core",
	}
	require.NoError(t, db.UpsertStandard(standard))

	matches, err := svc.AnalyzeTopic(context.Background(), "equivalent fractions", "4", "Mathematics", "Common Core")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "Explain equivalent fractions", matches[0].Description, "stored standard wins over model text")
	assert.Equal(t, "novel candidate", matches[1].Description)
}

func TestAddMaterialStripsHTMLAndDeduplicates(t *testing.T) {
	svc, _, course, teacher := setup(t, &fakeGateway{})

	html := `<html><head><style>p{color:red}</style></head><body><p>A fraction names part  of a whole.</p><script>alert(1)</script></body></html>`

	material, err := svc.AddMaterial(context.Background(), course.ID, teacher.ID, "Fractions handout", html, "html")
	require.NoError(t, err)
	assert.Equal(t, "A fraction names part of a whole.", material.Content)
	assert.Equal(t, "text", material.ContentType)

	_, err = svc.AddMaterial(context.Background(), course.ID, teacher.ID, "Copy", "A fraction names part of a whole.", "text")
	assert.ErrorIs(t, err, sqlite.ErrDuplicateMaterial)
}

func TestAddMaterialRejectsEmptyContent(t *testing.T) {
	svc, _, course, teacher := setup(t, &fakeGateway{})

	_, err := svc.AddMaterial(context.Background(), course.ID, teacher.ID, "Blank", "<html><body>   </body></html>", "html")
	assert.ErrorIs(t, err, ErrEmptyMaterial)
}

package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var extractReq = ExtractionRequest{
	Grade:           "4",
	Subject:         "Mathematics",
	CourseID:        "course-1",
	StandardsSystem: "Common Core",
}

func TestExtractLessonsDropsInvalidEntriesPreservingOrder(t *testing.T) {
	gw, _ := newTestGateway(stub{content: `{"lessons":[
		{"day":1,"title":"Place value","standard":"4.NBT.A.1"},
		{"day":2,"title":"Comparing numbers","standard":null},
		{"day":3,"standard":"4.NBT.A.2"},
		{"day":4,"title":"Rounding","standard":null},
		{"day":5,"title":"Addition review","standard":"4.NBT.B.4"}
	]}`})

	lessons, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	require.NoError(t, err)
	require.Len(t, lessons, 4, "the entry missing a title must be dropped")
	assert.Equal(t, []int{1, 2, 4, 5}, []int{lessons[0].Day, lessons[1].Day, lessons[2].Day, lessons[3].Day})
	assert.Equal(t, "Place value", lessons[0].Title)
	require.NotNil(t, lessons[0].Standard)
	assert.Equal(t, "4.NBT.A.1", *lessons[0].Standard)
	assert.Nil(t, lessons[1].Standard)
}

func TestExtractLessonsEmptyAfterFilteringFails(t *testing.T) {
	gw, _ := newTestGateway(stub{content: `{"lessons":[]}`})

	_, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestExtractLessonsAllInvalidFails(t *testing.T) {
	gw, _ := newTestGateway(stub{content: `{"lessons":[{"day":"first","title":""},{"title":"no day"}]}`})

	_, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestExtractLessonsTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("a", 150)
	gw, _ := newTestGateway(stub{content: `{"lessons":[{"day":1,"title":"` + long + `","standard":null}]}`})

	lessons, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Len(t, lessons[0].Title, 100)
}

func TestExtractLessonsRetriesRateLimitThenFails(t *testing.T) {
	gw, client := newTestGateway(
		stub{err: rateLimited()},
		stub{err: rateLimited()},
		stub{err: rateLimited()},
	)

	_, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	assert.ErrorIs(t, err, ErrTransientProvider)
	assert.Equal(t, 3, client.calls(), "exactly 3 total attempts on persistent 429")
}

func TestExtractLessonsRetriesRateLimitThenSucceeds(t *testing.T) {
	gw, client := newTestGateway(
		stub{err: rateLimited()},
		stub{content: `{"lessons":[{"day":1,"title":"Fractions intro","standard":null}]}`},
	)

	lessons, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	require.NoError(t, err)
	assert.Equal(t, 2, client.calls(), "exactly 2 calls: one 429, one success")
	assert.Len(t, lessons, 1)
}

func TestExtractLessonsRetriesServerError(t *testing.T) {
	gw, client := newTestGateway(
		stub{err: serverError()},
		stub{content: `{"lessons":[{"day":1,"title":"Decimals","standard":null}]}`},
	)

	_, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	require.NoError(t, err)
	assert.Equal(t, 2, client.calls())
}

func TestExtractLessonsDoesNotRetryClientErrors(t *testing.T) {
	gw, client := newTestGateway(stub{err: badRequest()})

	_, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 1, client.calls(), "4xx other than 429 must not be retried")
}

func TestExtractLessonsMalformedJSONFails(t *testing.T) {
	gw, _ := newTestGateway(stub{content: `here are your lessons: day 1 ...`})

	_, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestExtractLessonsAcceptsStringDaysAndFencedJSON(t *testing.T) {
	gw, _ := newTestGateway(stub{content: "```json\n" +
		`{"lessons":[{"day":"1","title":"Intro","standard":"4.OA.A.1"}]}` + "\n```"})

	lessons, err := gw.ExtractLessons(context.Background(), "guide text", extractReq)

	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, 1, lessons[0].Day)
}

package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchStandardsReturnsCandidates(t *testing.T) {
	gw, client := newTestGateway(stub{content: `{"standards":[
		{"id":"4.NF.A.1","description":"Explain equivalent fractions","grade":"4","subject":"Mathematics","confidence":1},
		{"id":null,"description":"Compare fractions with different denominators","grade":"4","subject":"Mathematics","confidence":0.4}
	]}`})

	matches, err := gw.MatchStandards(context.Background(), "equivalent fractions with models", "4", "Mathematics", "Common Core")

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 1, client.calls(), "matching path must not retry")
	require.NotNil(t, matches[0].ID)
	assert.Equal(t, "4.NF.A.1", *matches[0].ID)
	assert.Nil(t, matches[1].ID)
	assert.Equal(t, float64(1), matches[0].Confidence)
	assert.Equal(t, float64(1), matches[1].Confidence, "confidence is pinned to 1 regardless of model output")
}

func TestMatchStandardsBlankDescriptionIsEmptyResult(t *testing.T) {
	gw, _ := newTestGateway(stub{content: `{"standards":[{"description":""}]}`})

	_, err := gw.MatchStandards(context.Background(), "counting", "K", "Mathematics", "Common Core")

	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestMatchStandardsDropsBlankKeepsValid(t *testing.T) {
	gw, _ := newTestGateway(stub{content: `{"standards":[
		{"description":"  "},
		{"id":"K.CC.A.1","description":"Count to 100 by ones and tens","grade":"K","subject":"Mathematics"}
	]}`})

	matches, err := gw.MatchStandards(context.Background(), "counting", "K", "Mathematics", "Common Core")

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Count to 100 by ones and tens", matches[0].Description)
}

func TestMatchStandardsMalformedJSONFails(t *testing.T) {
	gw, _ := newTestGateway(stub{content: "I think K.CC.A.1 fits best."})

	_, err := gw.MatchStandards(context.Background(), "counting", "K", "Mathematics", "Common Core")

	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestMatchStandardsDoesNotRetryTransientErrors(t *testing.T) {
	gw, client := newTestGateway(stub{err: rateLimited()})

	_, err := gw.MatchStandards(context.Background(), "counting", "K", "Mathematics", "Common Core")

	assert.ErrorIs(t, err, ErrTransientProvider)
	assert.Equal(t, 1, client.calls())
}

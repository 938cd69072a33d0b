package pollbooth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewQuestionPresenter(t *testing.T) {
	q := question(testNow.Add(-2 * time.Hour))
	q.ID = 7

	p := newQuestionPresenter(q, testNow)
	require.Equal(t, "/questions/7", p.Path)
	require.Equal(t, "/questions/7/results", p.ResultsPath)
	require.True(t, p.PublishedRecently)
	require.True(t, p.Open)
	require.False(t, p.HasEndDate)
}

func TestNewResultPresenters(t *testing.T) {
	choices := []*ChoiceResult{
		{Choice: Choice{ID: 1, ChoiceText: "yes"}, Votes: 3},
		{Choice: Choice{ID: 2, ChoiceText: "no"}, Votes: 1},
	}

	presenters := newResultPresenters(choices)
	require.Len(t, presenters, 2)
	require.Equal(t, 75, presenters[0].Percent)
	require.Equal(t, 25, presenters[1].Percent)
}

func TestNewResultPresentersNoVotes(t *testing.T) {
	choices := []*ChoiceResult{
		{Choice: Choice{ID: 1, ChoiceText: "yes"}},
		{Choice: Choice{ID: 2, ChoiceText: "no"}},
	}

	presenters := newResultPresenters(choices)
	require.Len(t, presenters, 2)
	require.Equal(t, 0, presenters[0].Percent)
	require.Equal(t, 0, presenters[1].Percent)
}

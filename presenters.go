package pollbooth

import (
	"fmt"
	"html/template"
	"time"
)

// questionPresenter carries a Question plus everything the templates derive
// from the request time, so they never have to reason about clocks.
type questionPresenter struct {
	ID                int64
	QuestionText      string
	Description       template.HTML
	PubDate           time.Time
	EndDate           time.Time
	HasEndDate        bool
	Author            string
	PublishedRecently bool
	Open              bool
	Path              string
	ResultsPath       string
}

func newQuestionPresenter(q *Question, now time.Time) *questionPresenter {
	p := &questionPresenter{
		ID:                q.ID,
		QuestionText:      q.QuestionText,
		Description:       renderDescription(q.Description),
		PubDate:           q.PubDate,
		Author:            q.Author,
		PublishedRecently: q.WasPublishedRecently(now),
		Open:              q.CanVote(now),
		Path:              fmt.Sprintf("/questions/%v", q.ID),
		ResultsPath:       fmt.Sprintf("/questions/%v/results", q.ID),
	}

	if q.EndDate.Valid {
		p.HasEndDate = true
		p.EndDate = q.EndDate.Time
	}

	return p
}

// resultPresenter is one tally row on the results page.
type resultPresenter struct {
	ChoiceText string
	Votes      int64
	Percent    int
}

func newResultPresenters(choices []*ChoiceResult) []*resultPresenter {
	var total int64
	for _, c := range choices {
		total += c.Votes
	}

	presenters := make([]*resultPresenter, 0, len(choices))
	for _, c := range choices {
		p := &resultPresenter{
			ChoiceText: c.ChoiceText,
			Votes:      c.Votes,
		}
		if total > 0 {
			p.Percent = int(c.Votes * 100 / total)
		}
		presenters = append(presenters, p)
	}

	return presenters
}

package pollbooth

import (
	"database/sql"
	"time"
)

// MaxQuestionTextLen bounds the length of a question prompt, matching the
// column definition in pgstore.
const MaxQuestionTextLen = 200

// A Question is a poll prompt. It becomes visible to end users at PubDate and,
// when EndDate is set, stops accepting votes after it.
type Question struct {
	ID           int64        `db:"id"`
	QuestionText string       `db:"question_text"`
	Description  string       `db:"description"`
	PubDate      time.Time    `db:"pub_date"`
	EndDate      sql.NullTime `db:"end_date"`
	Author       string       `db:"author"`
	AuthorID     int64        `db:"author_id"`
	CreatedAt    time.Time    `db:"created_at"`
}

func NewQuestion(text string, description string, authorID int64, pubDate time.Time, endDate sql.NullTime) *Question {
	return &Question{
		QuestionText: text,
		Description:  description,
		AuthorID:     authorID,
		PubDate:      pubDate,
		EndDate:      endDate,
		CreatedAt:    NowFunc(),
	}
}

// IsPublished reports whether the question is visible at the given time.
// The boundary is inclusive: a question is published at exactly its PubDate.
func (q *Question) IsPublished(now time.Time) bool {
	return !now.Before(q.PubDate)
}

// WasPublishedRecently reports whether PubDate falls within the last 24
// hours, both bounds included. Display sugar only, not a visibility check.
func (q *Question) WasPublishedRecently(now time.Time) bool {
	if q.PubDate.After(now) {
		return false
	}
	return !q.PubDate.Before(now.Add(-24 * time.Hour))
}

// CanVote reports whether the voting window is open at the given time.
//
// A question without an end date is open-ended and always reports true,
// even before its PubDate; callers gating an actual vote must check
// IsPublished as well. With an end date the window is
// [PubDate, EndDate], inclusive on both bounds, which also means a
// question whose end date precedes its publication date is never votable.
func (q *Question) CanVote(now time.Time) bool {
	if !q.EndDate.Valid {
		return true
	}
	if now.Before(q.PubDate) {
		return false
	}
	return !now.After(q.EndDate.Time)
}

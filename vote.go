package pollbooth

import (
	"time"
)

// A Vote is a user's current selection for a Question, at most one row per
// (user, question). Re-voting reassigns ChoiceID rather than inserting a new
// row; QuestionID is denormalized on the row so the storage layer can carry a
// uniqueness constraint on (user_id, question_id).
type Vote struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	QuestionID int64     `db:"question_id"`
	ChoiceID   int64     `db:"choice_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func NewVote(userID int64, questionID int64, choiceID int64) *Vote {
	now := NowFunc()
	return &Vote{
		UserID:     userID,
		QuestionID: questionID,
		ChoiceID:   choiceID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

package pollbooth

// MaxChoiceTextLen bounds the length of a choice label, matching the column
// definition in pgstore.
const MaxChoiceTextLen = 200

// A Choice is one selectable answer belonging to a Question. It carries no
// vote counter; tallies are counted from the votes table at read time.
type Choice struct {
	ID         int64  `db:"id"`
	QuestionID int64  `db:"question_id"`
	ChoiceText string `db:"choice_text"`
}

// A ChoiceResult is a Choice augmented with how many votes it holds, as
// returned by the results read path.
type ChoiceResult struct {
	Choice
	Votes int64 `db:"votes"`
}

func NewChoice(questionID int64, text string) *Choice {
	return &Choice{
		QuestionID: questionID,
		ChoiceText: text,
	}
}

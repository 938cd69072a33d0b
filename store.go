package pollbooth

import "time"

// Store is the persistence boundary for the poll domain. Implementations
// return ErrNotFound for find methods when no row matches, except FindVote
// which returns a nil vote so callers can tell "never voted" apart from a
// storage failure.
type Store interface {
	Connect() error

	FindQuestion(id int64) (*Question, error)
	// ListPublishedQuestions returns questions whose pub_date is at or
	// before now, newest first, at most limit entries.
	ListPublishedQuestions(now time.Time, limit int) ([]*Question, error)
	InsertQuestion(question *Question) error

	FindChoice(id int64) (*Choice, error)
	ListChoices(questionID int64) ([]*Choice, error)
	// ListChoicesWithVotes returns every choice of a question along with a
	// read-time count of its vote rows.
	ListChoicesWithVotes(questionID int64) ([]*ChoiceResult, error)
	InsertChoice(choice *Choice) error

	FindVote(userID int64, questionID int64) (*Vote, error)
	// CreateOrUpdateVote persists the user's selection, inserting a row on
	// the first vote and reassigning choice_id on a re-vote. The lookup and
	// write happen in a single transaction so two concurrent submissions
	// can't both take the insert path.
	CreateOrUpdateVote(vote *Vote) error

	FindUserByLogin(login string) (*User, error)
	CreateOrUpdateUser(login string, email string) (int64, error)
}

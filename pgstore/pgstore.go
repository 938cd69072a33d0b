package pgstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pollbooth/pollbooth"
)

// A PGStore is responsible of interacting with the storage layer using a Postgresql database.
type PGStore struct {
	dbString string
	db       *sqlx.DB
}

// New returns a PGStore configured for a given address string, using the "user=postgres dbname=pollbooth ..." format.
func New(addr string) *PGStore {
	return &PGStore{
		dbString: addr,
	}
}

// Connect establish a connection with the database using the address given at initialization.
func (s *PGStore) Connect() error {
	db, err := sqlx.Connect("postgres", s.dbString)
	if err != nil {
		return err
	}

	s.db = db

	return nil
}

// DB returns the existing connection, making it suitable to perform requests not already supported by
// the store interface. If called while not connected, it will return nil.
func (s *PGStore) DB() *sqlx.DB {
	return s.db
}

func (s *PGStore) FindQuestion(id int64) (*pollbooth.Question, error) {
	question := pollbooth.Question{}
	err := s.db.Get(&question,
		`SELECT questions.*, users.name AS author FROM questions
		 JOIN users ON questions.author_id = users.id
		 WHERE questions.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("question %d: %w", id, pollbooth.ErrNotFound)
		}
		return nil, err
	}

	return &question, nil
}

func (s *PGStore) ListPublishedQuestions(now time.Time, limit int) ([]*pollbooth.Question, error) {
	questions := []*pollbooth.Question{}
	err := s.db.Select(&questions,
		`SELECT questions.*, users.name AS author FROM questions
		 JOIN users ON questions.author_id = users.id
		 WHERE questions.pub_date <= $1
		 ORDER BY questions.pub_date DESC
		 LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}

	return questions, nil
}

func (s *PGStore) InsertQuestion(question *pollbooth.Question) error {
	var id int64
	err := s.db.Get(&id,
		`INSERT INTO questions (question_text, description, pub_date, end_date, author_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		question.QuestionText, question.Description, question.PubDate, question.EndDate, question.AuthorID, question.CreatedAt,
	)
	if err != nil {
		return err
	}

	question.ID = id

	return nil
}

func (s *PGStore) FindChoice(id int64) (*pollbooth.Choice, error) {
	choice := pollbooth.Choice{}
	err := s.db.Get(&choice, "SELECT * FROM choices WHERE id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("choice %d: %w", id, pollbooth.ErrNotFound)
		}
		return nil, err
	}

	return &choice, nil
}

func (s *PGStore) ListChoices(questionID int64) ([]*pollbooth.Choice, error) {
	choices := []*pollbooth.Choice{}
	err := s.db.Select(&choices, "SELECT * FROM choices WHERE question_id = $1 ORDER BY id ASC", questionID)
	if err != nil {
		return nil, err
	}

	return choices, nil
}

func (s *PGStore) ListChoicesWithVotes(questionID int64) ([]*pollbooth.ChoiceResult, error) {
	results := []*pollbooth.ChoiceResult{}
	err := s.db.Select(&results,
		`SELECT choices.*, COUNT(votes.id) AS votes FROM choices
		 LEFT JOIN votes ON votes.choice_id = choices.id
		 WHERE choices.question_id = $1
		 GROUP BY choices.id
		 ORDER BY choices.id ASC`, questionID)
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (s *PGStore) InsertChoice(choice *pollbooth.Choice) error {
	var id int64
	err := s.db.Get(&id,
		"INSERT INTO choices (question_id, choice_text) VALUES ($1, $2) RETURNING id",
		choice.QuestionID, choice.ChoiceText,
	)
	if err != nil {
		return err
	}

	choice.ID = id

	return nil
}

func (s *PGStore) FindVote(userID int64, questionID int64) (*pollbooth.Vote, error) {
	vote := pollbooth.Vote{}
	err := s.db.Get(&vote, "SELECT * FROM votes WHERE user_id = $1 AND question_id = $2", userID, questionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &vote, nil
}

// CreateOrUpdateVote records the user's selection for a question. The whole
// read-modify-write runs in one transaction and the votes table carries a
// unique constraint on (user_id, question_id), so two concurrent submissions
// by the same user end up with a single row either way.
func (s *PGStore) CreateOrUpdateVote(vote *pollbooth.Vote) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.Get(vote,
		`INSERT INTO votes (user_id, question_id, choice_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, question_id)
		 DO UPDATE SET choice_id = EXCLUDED.choice_id, updated_at = EXCLUDED.updated_at
		 RETURNING *`,
		vote.UserID, vote.QuestionID, vote.ChoiceID, vote.CreatedAt, vote.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PGStore) FindUserByLogin(name string) (*pollbooth.User, error) {
	user := pollbooth.User{}
	err := s.db.Get(&user, "SELECT * FROM users WHERE name = $1", name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (s *PGStore) CreateOrUpdateUser(login string, email string) (int64, error) {
	var id int64
	now := time.Now()
	err := s.db.Get(&id,
		`INSERT INTO users (name, email, created_at, last_login_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET last_login_at = EXCLUDED.last_login_at
		 RETURNING id`, login, email, now, now)
	if err != nil {
		return 0, err
	}

	return id, nil
}

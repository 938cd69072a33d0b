package pollbooth

import (
	"fmt"
	"time"
)

// DefaultIndexLimit is how many published questions the index lists.
const DefaultIndexLimit = 5

// A VotingService enforces the poll lifecycle rules on top of a Store:
// visibility of questions, the voting window, and one vote per user per
// question. Handlers talk to it with plain ids and timestamps; each request
// reads the clock once and threads that time through every check.
type VotingService struct {
	store      Store
	indexLimit int
}

// A QuestionDetail bundles what the detail page needs: the question, its
// choices and the requesting user's current vote, nil if they haven't voted.
type QuestionDetail struct {
	Question    *Question
	Choices     []*Choice
	CurrentVote *Vote
}

// QuestionResults holds the read-time tallies for a question.
type QuestionResults struct {
	Question *Question
	Choices  []*ChoiceResult
}

func NewVotingService(store Store, indexLimit int) *VotingService {
	if indexLimit <= 0 {
		indexLimit = DefaultIndexLimit
	}

	return &VotingService{
		store:      store,
		indexLimit: indexLimit,
	}
}

// ListPublished returns the latest published questions, newest pub_date
// first, excluding anything scheduled after now.
func (v *VotingService) ListPublished(now time.Time) ([]*Question, error) {
	return v.store.ListPublishedQuestions(now, v.indexLimit)
}

// findPublishedQuestion loads a question, masking both a missing row and a
// not-yet-published one as ErrNotFound.
func (v *VotingService) findPublishedQuestion(questionID int64, now time.Time) (*Question, error) {
	question, err := v.store.FindQuestion(questionID)
	if err != nil {
		return nil, err
	}

	if !question.IsPublished(now) {
		return nil, fmt.Errorf("question %d not published: %w", questionID, ErrNotFound)
	}

	return question, nil
}

// QuestionDetail returns a published question with its choices and the
// user's current vote. Unpublished and missing questions are both reported
// as ErrNotFound. A zero userID stands for an unauthenticated visitor and
// skips the vote lookup.
func (v *VotingService) QuestionDetail(questionID int64, userID int64, now time.Time) (*QuestionDetail, error) {
	question, err := v.findPublishedQuestion(questionID, now)
	if err != nil {
		return nil, err
	}

	choices, err := v.store.ListChoices(questionID)
	if err != nil {
		return nil, err
	}

	detail := &QuestionDetail{
		Question: question,
		Choices:  choices,
	}

	if userID != 0 {
		vote, err := v.store.FindVote(userID, questionID)
		if err != nil {
			return nil, err
		}
		detail.CurrentVote = vote
	}

	return detail, nil
}

// Results returns the vote tallies of a published question, counted from
// the vote rows at read time.
func (v *VotingService) Results(questionID int64, now time.Time) (*QuestionResults, error) {
	question, err := v.findPublishedQuestion(questionID, now)
	if err != nil {
		return nil, err
	}

	choices, err := v.store.ListChoicesWithVotes(questionID)
	if err != nil {
		return nil, err
	}

	return &QuestionResults{
		Question: question,
		Choices:  choices,
	}, nil
}

// CastVote records userID's selection of choiceID on questionID, reassigning
// any previous selection for that question instead of adding a row.
//
// The checks run in order and stop at the first failure: a missing or
// unpublished question yields ErrNotFound, a closed voting window
// ErrVotingClosed, a choice that doesn't belong to the question
// ErrInvalidChoice. On success the persisted vote is returned.
func (v *VotingService) CastVote(userID int64, questionID int64, choiceID int64, now time.Time) (*Vote, error) {
	question, err := v.findPublishedQuestion(questionID, now)
	if err != nil {
		return nil, err
	}

	if !question.CanVote(now) {
		return nil, fmt.Errorf("question %d: %w", questionID, ErrVotingClosed)
	}

	choice, err := v.store.FindChoice(choiceID)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("choice %d: %w", choiceID, ErrInvalidChoice)
		}
		return nil, err
	}

	if choice.QuestionID != questionID {
		return nil, fmt.Errorf("choice %d belongs to question %d: %w", choiceID, choice.QuestionID, ErrInvalidChoice)
	}

	vote := NewVote(userID, questionID, choiceID)
	if err := v.store.CreateOrUpdateVote(vote); err != nil {
		return nil, err
	}

	return vote, nil
}

package pgstore

import (
	"database/sql"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/pollbooth/pollbooth"
)

func truncate(s *PGStore) {
	s.DB().MustExec("TRUNCATE TABLE users, questions, choices, votes RESTART IDENTITY CASCADE;")
}

func createQuestion(c *qt.C, s *PGStore, authorID int64, pubDate time.Time, endDate sql.NullTime, choiceTexts ...string) (*pollbooth.Question, []*pollbooth.Choice) {
	question := pollbooth.NewQuestion("a question", "", authorID, pubDate, endDate)
	c.Assert(s.InsertQuestion(question), qt.IsNil)

	var choices []*pollbooth.Choice
	for _, text := range choiceTexts {
		choice := pollbooth.NewChoice(question.ID, text)
		c.Assert(s.InsertChoice(choice), qt.IsNil)
		choices = append(choices, choice)
	}

	return question, choices
}

func TestPGStore(t *testing.T) {
	c := qt.New(t)
	store := New("user=postgres dbname=pollbooth_test sslmode=disable password=postgres host=127.0.0.1")
	c.Assert(store.Connect(), qt.IsNil)
	c.Assert(store.CreateSchema(), qt.IsNil)

	now := time.Now().Round(time.Microsecond) // pg timestamps have microsecond resolution

	c.Run("InsertQuestion and FindQuestion", func(c *qt.C) {
		c.Cleanup(func() { truncate(store) })

		authorID, err := store.CreateOrUpdateUser("a", "a@a.com")
		c.Assert(err, qt.IsNil)

		question, choices := createQuestion(c, store, authorID, now, sql.NullTime{}, "yes", "no")
		c.Assert(question.ID, qt.Not(qt.Equals), int64(0))

		found, err := store.FindQuestion(question.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(found.QuestionText, qt.Equals, "a question")
		c.Assert(found.Author, qt.Equals, "a")
		c.Assert(found.EndDate.Valid, qt.IsFalse)

		listed, err := store.ListChoices(question.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(listed, qt.HasLen, 2)
		c.Assert(listed[0].ID, qt.Equals, choices[0].ID)
	})

	c.Run("FindQuestion missing row", func(c *qt.C) {
		_, err := store.FindQuestion(666)
		c.Assert(pollbooth.IsNotFound(err), qt.IsTrue)
	})

	c.Run("ListPublishedQuestions", func(c *qt.C) {
		c.Cleanup(func() { truncate(store) })

		authorID, err := store.CreateOrUpdateUser("a", "a@a.com")
		c.Assert(err, qt.IsNil)

		// seven past questions, one future
		for i := 1; i <= 7; i++ {
			createQuestion(c, store, authorID, now.Add(-time.Duration(i)*24*time.Hour), sql.NullTime{}, "yes", "no")
		}
		createQuestion(c, store, authorID, now.Add(24*time.Hour), sql.NullTime{}, "yes", "no")

		questions, err := store.ListPublishedQuestions(now, 5)
		c.Assert(err, qt.IsNil)
		c.Assert(questions, qt.HasLen, 5)

		for i, q := range questions {
			c.Assert(q.PubDate.After(now), qt.IsFalse)
			if i > 0 {
				c.Assert(questions[i-1].PubDate.After(q.PubDate), qt.IsTrue)
			}
		}
	})

	c.Run("question published exactly now is listed", func(c *qt.C) {
		c.Cleanup(func() { truncate(store) })

		authorID, err := store.CreateOrUpdateUser("a", "a@a.com")
		c.Assert(err, qt.IsNil)
		createQuestion(c, store, authorID, now, sql.NullTime{}, "yes", "no")

		questions, err := store.ListPublishedQuestions(now, 5)
		c.Assert(err, qt.IsNil)
		c.Assert(questions, qt.HasLen, 1)
	})

	c.Run("CreateOrUpdateVote", func(c *qt.C) {
		c.Run("creates a single row per user and question", func(c *qt.C) {
			c.Cleanup(func() { truncate(store) })

			authorID, err := store.CreateOrUpdateUser("a", "a@a.com")
			c.Assert(err, qt.IsNil)
			question, choices := createQuestion(c, store, authorID, now, sql.NullTime{}, "yes", "no")

			vote := pollbooth.NewVote(authorID, question.ID, choices[0].ID)
			c.Assert(store.CreateOrUpdateVote(vote), qt.IsNil)
			c.Assert(vote.ID, qt.Not(qt.Equals), int64(0))

			var count int
			err = store.DB().Get(&count, "SELECT COUNT(*) FROM votes WHERE user_id = $1 AND question_id = $2", authorID, question.ID)
			c.Assert(err, qt.IsNil)
			c.Assert(count, qt.Equals, 1)
		})

		c.Run("re-vote reassigns the choice in place", func(c *qt.C) {
			c.Cleanup(func() { truncate(store) })

			authorID, err := store.CreateOrUpdateUser("a", "a@a.com")
			c.Assert(err, qt.IsNil)
			question, choices := createQuestion(c, store, authorID, now, sql.NullTime{}, "yes", "no")

			first := pollbooth.NewVote(authorID, question.ID, choices[0].ID)
			c.Assert(store.CreateOrUpdateVote(first), qt.IsNil)

			second := pollbooth.NewVote(authorID, question.ID, choices[1].ID)
			c.Assert(store.CreateOrUpdateVote(second), qt.IsNil)
			c.Assert(second.ID, qt.Equals, first.ID, qt.Commentf("re-vote must reuse the row"))

			var count int
			err = store.DB().Get(&count, "SELECT COUNT(*) FROM votes WHERE user_id = $1 AND question_id = $2", authorID, question.ID)
			c.Assert(err, qt.IsNil)
			c.Assert(count, qt.Equals, 1)

			found, err := store.FindVote(authorID, question.ID)
			c.Assert(err, qt.IsNil)
			c.Assert(found.ChoiceID, qt.Equals, choices[1].ID)
		})

		c.Run("votes on the same question by different users keep their rows", func(c *qt.C) {
			c.Cleanup(func() { truncate(store) })

			userA, err := store.CreateOrUpdateUser("a", "a@a.com")
			c.Assert(err, qt.IsNil)
			userB, err := store.CreateOrUpdateUser("b", "b@b.com")
			c.Assert(err, qt.IsNil)
			question, choices := createQuestion(c, store, userA, now, sql.NullTime{}, "yes", "no")

			c.Assert(store.CreateOrUpdateVote(pollbooth.NewVote(userA, question.ID, choices[0].ID)), qt.IsNil)
			c.Assert(store.CreateOrUpdateVote(pollbooth.NewVote(userB, question.ID, choices[0].ID)), qt.IsNil)

			var count int
			err = store.DB().Get(&count, "SELECT COUNT(*) FROM votes WHERE question_id = $1", question.ID)
			c.Assert(err, qt.IsNil)
			c.Assert(count, qt.Equals, 2)
		})
	})

	c.Run("FindVote without a vote", func(c *qt.C) {
		vote, err := store.FindVote(1, 1)
		c.Assert(err, qt.IsNil)
		c.Assert(vote, qt.IsNil)
	})

	c.Run("ListChoicesWithVotes counts vote rows", func(c *qt.C) {
		c.Cleanup(func() { truncate(store) })

		userA, err := store.CreateOrUpdateUser("a", "a@a.com")
		c.Assert(err, qt.IsNil)
		userB, err := store.CreateOrUpdateUser("b", "b@b.com")
		c.Assert(err, qt.IsNil)
		userC, err := store.CreateOrUpdateUser("c", "c@c.com")
		c.Assert(err, qt.IsNil)

		question, choices := createQuestion(c, store, userA, now, sql.NullTime{}, "yes", "no", "maybe")

		c.Assert(store.CreateOrUpdateVote(pollbooth.NewVote(userA, question.ID, choices[0].ID)), qt.IsNil)
		c.Assert(store.CreateOrUpdateVote(pollbooth.NewVote(userB, question.ID, choices[0].ID)), qt.IsNil)
		c.Assert(store.CreateOrUpdateVote(pollbooth.NewVote(userC, question.ID, choices[1].ID)), qt.IsNil)

		results, err := store.ListChoicesWithVotes(question.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(results, qt.HasLen, 3)
		c.Assert(results[0].Votes, qt.Equals, int64(2))
		c.Assert(results[1].Votes, qt.Equals, int64(1))
		c.Assert(results[2].Votes, qt.Equals, int64(0))
	})

	c.Run("Find non-existing user", func(c *qt.C) {
		userRecord, err := store.FindUserByLogin("non-existing")
		c.Assert(err, qt.IsNil)
		c.Assert(userRecord, qt.IsNil)
	})

	c.Run("CreateOrUpdateUser is idempotent on login", func(c *qt.C) {
		c.Cleanup(func() { truncate(store) })

		first, err := store.CreateOrUpdateUser("a", "a@a.com")
		c.Assert(err, qt.IsNil)
		second, err := store.CreateOrUpdateUser("a", "a@a.com")
		c.Assert(err, qt.IsNil)
		c.Assert(second, qt.Equals, first)
	})
}

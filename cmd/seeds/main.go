package main

import (
	"database/sql"
	"time"

	"github.com/pollbooth/pollbooth"
	"github.com/pollbooth/pollbooth/cmd"
	"github.com/pollbooth/pollbooth/pgstore"
	"github.com/rs/zerolog/log"
)

var users = []string{"tintin", "milou", "haddock", "castafiore", "tournesol"}

type seedQuestion struct {
	text        string
	description string
	pubOffset   time.Duration // relative to now
	endOffset   time.Duration // zero means open-ended
	choices     []string
}

var questions = []seedQuestion{
	{
		text:        "What's your favourite text editor?",
		description: "Be honest, nobody is judging. Much.",
		pubOffset:   -72 * time.Hour,
		choices:     []string{"vim", "emacs", "something with a GUI", "ed, obviously"},
	},
	{
		text:      "Tabs or spaces?",
		pubOffset: -24 * time.Hour,
		choices:   []string{"tabs", "spaces", "both, chaotically"},
	},
	{
		text:        "Where should the next team lunch happen?",
		description: "Voting closes tomorrow, pick wisely.",
		pubOffset:   -2 * time.Hour,
		endOffset:   24 * time.Hour,
		choices:     []string{"the noodle place", "the burger place", "that new vegan spot"},
	},
	{
		text:      "Did you like last week's retro format?",
		pubOffset: -240 * time.Hour,
		endOffset: -120 * time.Hour, // already closed, only results remain
		choices:   []string{"yes", "no", "what retro?"},
	},
	{
		text:      "Next quarter's offsite location?",
		pubOffset: 48 * time.Hour, // scheduled, not visible yet
		choices:   []string{"mountains", "seaside", "stay home"},
	},
}

func main() {
	cfg := cmd.DefaultConfig()
	err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read configuration")
	}
	logger := cmd.SetupLogger(cfg)
	logger.Info().Msg("Seeding database")

	pg := pgstore.New(cfg.DatabaseString())
	err = pg.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("Can't connect to database")
	}

	err = pg.CreateSchema()
	if err != nil {
		log.Fatal().Err(err).Msg("Can't create schema")
	}

	var userIDs []int64
	for _, u := range users {
		id, err := pg.CreateOrUpdateUser(u, u+"@moulinsart.example")
		if err != nil {
			log.Fatal().Err(err).Msg("Can't create user")
		}
		userIDs = append(userIDs, id)
	}

	now := time.Now()
	for i, sq := range questions {
		authorID := userIDs[i%len(userIDs)]

		var endDate sql.NullTime
		if sq.endOffset != 0 {
			endDate = sql.NullTime{Time: now.Add(sq.endOffset), Valid: true}
		}

		question := pollbooth.NewQuestion(sq.text, sq.description, authorID, now.Add(sq.pubOffset), endDate)
		err = pg.InsertQuestion(question)
		if err != nil {
			log.Fatal().Err(err).Msg("Can't create question")
		}

		var choiceIDs []int64
		for _, c := range sq.choices {
			choice := pollbooth.NewChoice(question.ID, c)
			err = pg.InsertChoice(choice)
			if err != nil {
				log.Fatal().Err(err).Msg("Can't create choice")
			}
			choiceIDs = append(choiceIDs, choice.ID)
		}

		// spread some votes over the published questions
		if question.IsPublished(now) {
			for j, userID := range userIDs {
				if j%(i+2) == 0 {
					continue
				}
				vote := pollbooth.NewVote(userID, question.ID, choiceIDs[j%len(choiceIDs)])
				err = pg.CreateOrUpdateVote(vote)
				if err != nil {
					log.Fatal().Err(err).Msg("Can't create vote")
				}
			}
		}
	}

	logger.Info().Int("questions", len(questions)).Msg("Seeding done")
}

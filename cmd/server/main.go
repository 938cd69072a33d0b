package main

import (
	"github.com/pollbooth/pollbooth"
	"github.com/pollbooth/pollbooth/authentication/github_auth"
	"github.com/pollbooth/pollbooth/cmd"
	"github.com/pollbooth/pollbooth/pgstore"
	"github.com/pollbooth/pollbooth/slackhook"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := cmd.DefaultConfig()
	err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read configuration")
	}
	logger := cmd.SetupLogger(cfg)

	// setup database
	pg := pgstore.New(cfg.DatabaseString())

	// setup authentication
	ll := logger.With().Str("component", "github auth").Logger()
	authService := github_auth.New(cfg.ServerSecret, cfg.GithubClientID, cfg.GithubClientSecret, ll)

	// fire the server
	s := pollbooth.NewServer(
		&pollbooth.ServerConfig{Addr: cfg.Addr, QuestionsPerIndex: cfg.QuestionsPerIndex},
		logger,
		pg,
		authService,
	)

	if cfg.SlackWebhook != "" {
		sl := logger.With().Str("component", "slack").Logger()
		notifier := slackhook.New(cfg.SlackWebhook, cfg.BaseURL, sl)
		s.AddQuestionHook(notifier.QuestionHook())
	}

	err = s.Prepare()
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot prepare server")
	}

	err = s.Start()
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot start server")
	}
}

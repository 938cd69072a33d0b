package pollbooth

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/julienschmidt/httprouter"
	"github.com/pollbooth/pollbooth/authentication"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	_ "github.com/lib/pq"
)

// A QuestionHook is called right after a new question has been submitted,
// ie. to announce it on Slack.
type QuestionHook func(question *Question) error

type ServerConfig struct {
	Addr              string
	QuestionsPerIndex int
}

type Server struct {
	Logger          zerolog.Logger
	config          *ServerConfig
	store           Store
	voting          *VotingService
	router          *httprouter.Router
	done            chan struct{}
	idleConnsClosed chan struct{}
	sessionStore    *sessions.CookieStore
	authService     authentication.AuthService
	questionHooks   []QuestionHook
}

func init() {
	// be able to serialize session data in a cookie
	gob.Register(&oauth2.Token{})
}

func NewServer(config *ServerConfig, logger zerolog.Logger, store Store, authService authentication.AuthService) *Server {
	return &Server{
		config:          config,
		store:           store,
		voting:          NewVotingService(store, config.QuestionsPerIndex),
		authService:     authService,
		router:          httprouter.New(),
		Logger:          logger,
		done:            make(chan struct{}),
		idleConnsClosed: make(chan struct{}),
	}
}

// AddQuestionHook registers a hook run after each successful question
// submission.
func (s *Server) AddQuestionHook(h QuestionHook) {
	s.questionHooks = append(s.questionHooks, h)
}

func (s *Server) Prepare() error {
	// database
	err := s.store.Connect()
	if err != nil {
		return err
	}

	// routes
	withMiddlewares(func(m middleware) {
		s.router.GET("/", m(s.HandleIndex()))
		s.router.GET("/questions/:id", m(s.HandleShow()))
		s.router.GET("/questions/:id/results", m(s.HandleResults()))
		s.router.GET("/submit", m(s.HandleSubmit()))
	}, s.loadSessionMiddleware())

	withMiddlewares(func(m middleware) {
		s.router.POST("/submit", m(s.HandleSubmitAction()))
		s.router.POST("/questions/:id/vote", m(s.HandleVoteAction()))
	}, s.loadSessionMiddleware(), s.loadUserMiddleware())

	s.router.GET("/oauth/start", s.HandleOAuthStart())
	s.router.GET("/oauth/authorize", s.HandleOAuthCallback())
	s.router.GET("/oauth/destroy", s.HandleOAuthDestroy())
	s.router.ServeFiles("/static/*filepath", http.Dir("assets/static"))

	return nil
}

func (s *Server) Start() error {
	httpServer := http.Server{Addr: s.config.Addr, Handler: s}

	go func() {
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			// should probably bubble this up
			s.Logger.Fatal().Err(err).Msg("Server errored")
		}
	}()

	<-s.done

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	close(s.idleConnsClosed)

	return nil
}

func (s *Server) Stop() {
	close(s.done)
	<-s.idleConnsClosed
}

func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(res, req)
}

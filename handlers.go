package pollbooth

import (
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pollbooth/pollbooth/authentication"
)

// datetimeLocalFormat is the wire format of <input type="datetime-local">.
const datetimeLocalFormat = "2006-01-02T15:04"

// HandleOAuthStart handles requests starting the OAuth authentication process.
func (s *Server) HandleOAuthStart() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		s.authService.Start(res, req)
	}
}

// HandleOAuthCallback handles requests of the OAuth provider redirecting the user
// back to Pollbooth, after successfully authenticating him on its side.
func (s *Server) HandleOAuthCallback() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		s.authService.Callback(res, req, func(u *authentication.User) error {
			_, err := s.store.CreateOrUpdateUser(u.Login, u.Email)
			return err
		})
	}
}

// HandleOAuthDestroy handles requests destroying the current session.
func (s *Server) HandleOAuthDestroy() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		s.authService.Destroy(res, req)
	}
}

// HandleIndex handles requests for the root path, listing the latest published
// questions. Questions scheduled in the future are left out entirely.
func (s *Server) HandleIndex() httprouter.Handle {
	tmpl, err := template.New("index.html").Funcs(helpers).ParseFiles(
		"assets/templates/index.html",
		"assets/templates/_header.html",
		"assets/templates/_footer.html",
		"assets/templates/_question.html")
	if err != nil {
		s.Logger.Fatal().Err(err).Msg("Failed to load templates")
	}

	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		res.Header().Set("Content-Type", "text/html")

		session := ctxSession(req.Context())
		now := NowFunc()

		questions, err := s.voting.ListPublished(now)
		if err != nil {
			s.Logger.Error().Err(err).Msg("Failed to list questions")
			http.Error(res, "Failed to list questions", http.StatusInternalServerError)
			return
		}

		presenters := make([]*questionPresenter, 0, len(questions))
		for _, q := range questions {
			presenters = append(presenters, newQuestionPresenter(q, now))
		}

		vars := map[string]interface{}{
			"Questions": presenters,
			"Session":   session,
		}

		err = tmpl.Execute(res, vars)
		if err != nil {
			s.Logger.Error().Err(err).Msg("Failed to render template")
			http.Error(res, "Failed to render template", http.StatusInternalServerError)
			return
		}
	}
}

// HandleShow handles requests to access a particular question, showing its
// choices and the current user's selection if any. Questions that are not
// published yet are reported as not found, indistinguishable from questions
// that don't exist. A question whose voting window has closed redirects to
// its results.
func (s *Server) HandleShow() httprouter.Handle {
	tmpl, err := template.New("show.html").Funcs(helpers).ParseFiles(
		"assets/templates/show.html",
		"assets/templates/_header.html",
		"assets/templates/_footer.html")
	if err != nil {
		s.Logger.Fatal().Err(err).Msg("Failed to load templates")
	}

	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		res.Header().Set("Content-Type", "text/html")

		session := ctxSession(req.Context())
		now := NowFunc()

		id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
		if err != nil {
			http.Error(res, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		// zero means anonymous for the vote lookup
		var userID int64
		if session != nil {
			userRecord, err := s.store.FindUserByLogin(session.Login)
			if err != nil {
				s.Logger.Error().Err(err).Msg("Failed to fetch user from db")
				http.Error(res, "Failed to fetch user from database", http.StatusInternalServerError)
				return
			}
			if userRecord != nil {
				userID = userRecord.ID
			}
		}

		detail, err := s.voting.QuestionDetail(id, userID, now)
		if err != nil {
			if Maybe404(err).RespondError(res, req) {
				return
			}
			s.Logger.Error().Err(err).Int64("id", id).Msg("Failed to find question")
			http.Error(res, "Failed to find question", http.StatusInternalServerError)
			return
		}

		if !detail.Question.CanVote(now) {
			http.Redirect(res, req, fmt.Sprintf("/questions/%v/results", id), http.StatusFound)
			return
		}

		var currentChoiceID int64
		if detail.CurrentVote != nil {
			currentChoiceID = detail.CurrentVote.ChoiceID
		}

		vars := map[string]interface{}{
			"Question":        newQuestionPresenter(detail.Question, now),
			"Choices":         detail.Choices,
			"CurrentChoiceID": currentChoiceID,
			"NoChoiceError":   req.URL.Query().Get("error") == "choice",
			"Session":         session,
		}

		err = tmpl.Execute(res, vars)
		if err != nil {
			s.Logger.Error().Err(err).Msg("Failed to render template")
			http.Error(res, "Failed to render template", http.StatusInternalServerError)
			return
		}
	}
}

// HandleResults handles requests for a question's tallies. Counts come from
// the vote rows, computed at read time.
func (s *Server) HandleResults() httprouter.Handle {
	tmpl, err := template.New("results.html").Funcs(helpers).ParseFiles(
		"assets/templates/results.html",
		"assets/templates/_header.html",
		"assets/templates/_footer.html")
	if err != nil {
		s.Logger.Fatal().Err(err).Msg("Failed to load templates")
	}

	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		res.Header().Set("Content-Type", "text/html")

		session := ctxSession(req.Context())
		now := NowFunc()

		id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
		if err != nil {
			http.Error(res, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		results, err := s.voting.Results(id, now)
		if err != nil {
			if Maybe404(err).RespondError(res, req) {
				return
			}
			s.Logger.Error().Err(err).Int64("id", id).Msg("Failed to load results")
			http.Error(res, "Failed to load results", http.StatusInternalServerError)
			return
		}

		vars := map[string]interface{}{
			"Question": newQuestionPresenter(results.Question, now),
			"Results":  newResultPresenters(results.Choices),
			"Session":  session,
		}

		err = tmpl.Execute(res, vars)
		if err != nil {
			s.Logger.Error().Err(err).Msg("Failed to render template")
			http.Error(res, "Failed to render template", http.StatusInternalServerError)
			return
		}
	}
}

// HandleVoteAction handles requests casting a vote on a question. Voting
// again reassigns the previous selection instead of recording a second one.
func (s *Server) HandleVoteAction() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, params httprouter.Params) {
		now := NowFunc()

		id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
		if err != nil {
			http.Error(res, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		err = req.ParseForm()
		if err != nil {
			s.Logger.Warn().Err(err).Msg("Failed to parse form")
			http.Error(res, "Failed to parse form", http.StatusBadRequest)
			return
		}

		userRecord := ctxUser(req.Context())

		choiceID, err := strconv.ParseInt(req.FormValue("choice"), 10, 64)
		if err != nil {
			// no selection made, back to the form
			http.Redirect(res, req, fmt.Sprintf("/questions/%v?error=choice", id), http.StatusFound)
			return
		}

		_, err = s.voting.CastVote(userRecord.ID, id, choiceID, now)
		switch {
		case err == nil:
			http.Redirect(res, req, fmt.Sprintf("/questions/%v/results", id), http.StatusFound)
		case IsNotFound(err):
			Maybe404(err).RespondError(res, req)
		case errors.Is(err, ErrVotingClosed):
			http.Redirect(res, req, fmt.Sprintf("/questions/%v/results", id), http.StatusFound)
		case errors.Is(err, ErrInvalidChoice):
			http.Redirect(res, req, fmt.Sprintf("/questions/%v?error=choice", id), http.StatusFound)
		default:
			s.Logger.Error().Err(err).Int64("id", id).Msg("Failed to cast vote")
			http.Error(res, "Failed to cast vote", http.StatusInternalServerError)
		}
	}
}

// HandleSubmit handles requests to get the form for submitting a question. It
// redirects to the root path if not authenticated.
func (s *Server) HandleSubmit() httprouter.Handle {
	tmpl, err := template.New("submit.html").Funcs(helpers).ParseFiles(
		"assets/templates/submit.html",
		"assets/templates/_header.html",
		"assets/templates/_footer.html")
	if err != nil {
		s.Logger.Fatal().Err(err).Msg("Failed to parse template")
	}

	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		res.Header().Set("Content-Type", "text/html")

		session := ctxSession(req.Context())

		// redirect if unauthenticated
		if session == nil {
			http.Redirect(res, req, "/", http.StatusFound)
			return
		}

		vars := map[string]interface{}{
			"Session": session,
		}

		err = tmpl.Execute(res, vars)
		if err != nil {
			s.Logger.Error().Err(err).Msg("Failed to render template")
			http.Error(res, "Failed to render template", http.StatusInternalServerError)
			return
		}
	}
}

// HandleSubmitAction handles requests for when a user submits a question form.
// In case someone bypasses the client-side form validations with invalid form
// data, it returns a HTTP error. A question whose end date precedes its
// publication date is rejected outright rather than being stored as a poll
// nobody can ever vote on.
func (s *Server) HandleSubmitAction() httprouter.Handle {
	return func(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		res.Header().Set("Content-Type", "text/html")

		err := req.ParseForm()
		if err != nil {
			s.Logger.Warn().Err(err).Msg("Failed to parse form")
			BadRequest(err).RespondError(res, req)
			return
		}

		text := strings.TrimSpace(req.FormValue("question"))
		description := strings.TrimSpace(req.FormValue("description"))

		if text == "" || len(text) > MaxQuestionTextLen {
			UnprocessableEntity("question").RespondError(res, req)
			return
		}

		now := NowFunc()
		pubDate := now
		if v := req.FormValue("pub_date"); v != "" {
			pubDate, err = time.Parse(datetimeLocalFormat, v)
			if err != nil {
				UnprocessableEntityWithError(err, "pub_date").RespondError(res, req)
				return
			}
		}

		var endDate sql.NullTime
		if v := req.FormValue("end_date"); v != "" {
			t, err := time.Parse(datetimeLocalFormat, v)
			if err != nil {
				UnprocessableEntityWithError(err, "end_date").RespondError(res, req)
				return
			}
			if t.Before(pubDate) {
				UnprocessableEntity("end_date").RespondError(res, req)
				return
			}
			endDate = sql.NullTime{Time: t, Valid: true}
		}

		choices := splitChoices(req.FormValue("choices"))
		if len(choices) < 2 {
			UnprocessableEntity("choices").RespondError(res, req)
			return
		}
		for _, c := range choices {
			if len(c) > MaxChoiceTextLen {
				UnprocessableEntity("choices").RespondError(res, req)
				return
			}
		}

		userRecord := ctxUser(req.Context())
		question := NewQuestion(text, description, userRecord.ID, pubDate, endDate)

		err = s.store.InsertQuestion(question)
		if err != nil {
			s.Logger.Error().Err(err).Msg("Failed to insert question")
			http.Error(res, "Cannot insert question", http.StatusInternalServerError)
			return
		}

		for _, c := range choices {
			err = s.store.InsertChoice(NewChoice(question.ID, c))
			if err != nil {
				s.Logger.Error().Err(err).Msg("Failed to insert choice")
				http.Error(res, "Cannot insert choice", http.StatusInternalServerError)
				return
			}
		}

		question.Author = userRecord.Name

		for _, h := range s.questionHooks {
			err := h(question)
			if err != nil {
				s.Logger.Warn().Err(err).Msg("question hook failed")
				http.Error(res, "hook failed", http.StatusInternalServerError)
				return
			}
		}

		http.Redirect(res, req, fmt.Sprintf("/questions/%v", question.ID), http.StatusFound)
	}
}

// splitChoices turns the submitted textarea content, one choice per line,
// into trimmed non-empty labels.
func splitChoices(raw string) []string {
	var choices []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			choices = append(choices, line)
		}
	}

	return choices
}

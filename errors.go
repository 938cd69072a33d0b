package pollbooth

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// Domain conditions returned by the voting service. All three are
// recoverable, user-facing conditions; handlers redirect or re-render,
// they never crash on them. Storage failures are returned as plain
// wrapped errors and match none of these.
var (
	// ErrNotFound covers a missing question or choice as well as a question
	// that exists but isn't published yet; callers can't tell these apart,
	// which keeps unpublished content unguessable.
	ErrNotFound = errors.New("not found")

	// ErrVotingClosed signals a question past its end date.
	ErrVotingClosed = errors.New("voting closed")

	// ErrInvalidChoice signals a choice that was omitted or doesn't belong
	// to the question being voted on.
	ErrInvalidChoice = errors.New("invalid choice")
)

// IsNotFound reports whether err wraps ErrNotFound or sql.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

type ErrorResponder interface {
	RespondError(w http.ResponseWriter, r *http.Request) bool
}

// Maybe404Error responds with not found status code, if its supplied error
// is sql.ErrNoRows or ErrNotFound.
type Maybe404Error struct {
	err error
}

func Maybe404(err error) *Maybe404Error {
	return &Maybe404Error{err: err}
}

func (e *Maybe404Error) Error() string {
	return fmt.Sprintf("Maybe404: %v", e.err.Error())
}

func (e *Maybe404Error) Is404() bool {
	return errors.Is(e.err, sql.ErrNoRows) || errors.Is(e.err, ErrNotFound)
}

func (e *Maybe404Error) RespondError(w http.ResponseWriter, r *http.Request) bool {
	if !e.Is404() {
		return false
	}

	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	return true
}

// UnauthorizedError responds with unauthorized status code.
type UnauthorizedError struct {
	path string
}

func Unauthorized(path string) *UnauthorizedError {
	return &UnauthorizedError{path: path}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("UnauthorizedError: %v", e.path)
}

func (e *UnauthorizedError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	return true
}

// BadRequestError responds with bad request status code
type BadRequestError struct {
	err error
}

func BadRequest(err error) *BadRequestError {
	return &BadRequestError{err: err}
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("BadRequestError: %v", e.err)
}

func (e *BadRequestError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	return true
}

// UnprocessableEntityError responds with unprocessable entity status code,
// listing fields that are invalid.
type UnprocessableEntityError struct {
	fieldNames []string
	err        error
}

func UnprocessableEntity(fieldNames ...string) *UnprocessableEntityError {
	return &UnprocessableEntityError{
		fieldNames: fieldNames,
	}
}

func UnprocessableEntityWithError(err error, fieldNames ...string) *UnprocessableEntityError {
	return &UnprocessableEntityError{
		err:        err,
		fieldNames: fieldNames,
	}
}

func (e *UnprocessableEntityError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("UnprocessableEntityError: error %v, %v", e.err, e.fieldNames)
	} else {
		return fmt.Sprintf("UnprocessableEntityError: %v", e.fieldNames)
	}
}

func (e *UnprocessableEntityError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	msg := fmt.Sprintf("%s: invalid %v", http.StatusText(http.StatusUnprocessableEntity), e.fieldNames)
	http.Error(w, msg, http.StatusUnprocessableEntity)
	return true
}

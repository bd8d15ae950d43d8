package wizard

import (
	"errors"
	"fmt"
)

// Step is a state of the booking wizard.  Steps only move forward one at a
// time, except for Back, and Confirmation is terminal.
type Step int

const (
	SelectShowtime Step = iota
	SelectSeats
	Payment
	Confirmation
)

var stepNames = [...]string{"select_showtime", "select_seats", "payment", "confirmation"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Errors returned by wizard operations.  None of them change the session.
var (
	ErrSessionNotFound  = errors.New("booking session not found")
	ErrWrongStep        = errors.New("operation not allowed in the current step")
	ErrMovieUnavailable = errors.New("movie details could not be loaded")
	ErrUnknownShowtime  = errors.New("unknown showtime")
	ErrSoldOut          = errors.New("showtime is sold out")
	ErrUnknownSeat      = errors.New("unknown seat")
	ErrSeatOccupied     = errors.New("seat is occupied")
	ErrNoSeats          = errors.New("please select at least one seat")
	ErrNoBack           = errors.New("cannot go back from this step")
	ErrPaymentPending   = errors.New("payment is being processed")
)

// StepError wraps ErrWrongStep with the step the session is in.
type StepError struct {
	Op   string
	Have Step
	Want Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: session is in %s, needs %s", e.Op, e.Have, e.Want)
}

func (e *StepError) Unwrap() error { return ErrWrongStep }

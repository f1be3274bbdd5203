package services

import (
	"errors"
	"fmt"
)

// DefaultFailureMessage is shown when a failed schema request carries no
// usable explanation.
const DefaultFailureMessage = "Failed to generate schema"

var (
	// ErrWorkflowBusy is returned when a generation is triggered while another
	// one is still loading.
	ErrWorkflowBusy = errors.New("schema generation already in progress")
	// ErrValidation marks caller input the service refuses.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition is returned when a listing is reviewed twice.
	ErrInvalidTransition = errors.New("listing is not pending review")
	// ErrInvalidModelOutput is returned when the language model answers with
	// something that is not the expected JSON document.
	ErrInvalidModelOutput = errors.New("language model returned an invalid document")
)

// RequestFailure is the single failure kind of a schema request. Transport
// errors, non-success statuses and undecodable bodies all end up here.
type RequestFailure struct {
	// StatusCode is zero when no response was received.
	StatusCode int
	// Message is the human readable text for the presentation layer.
	Message string
	Err     error
}

func (e *RequestFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// FailureMessage returns the text to display for err.
func FailureMessage(err error) string {
	var rf *RequestFailure
	if errors.As(err, &rf) && rf.Message != "" {
		return rf.Message
	}
	return DefaultFailureMessage
}

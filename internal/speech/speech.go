package speech

import (
	"context"
	"io"

	"github.com/i474232898/vocal-weather/internal/outcome"
)

// Reason classifies how a recognition attempt ended.
type Reason string

const (
	ReasonRecognized      Reason = "recognized"
	ReasonNoMatch         Reason = "no_match"
	ReasonCanceled        Reason = "canceled"
	ReasonConnectionError Reason = "connection_error"
)

const (
	msgNoMatch  = "no speech recognized"
	msgCanceled = "speech recognition canceled"
	msgConnect  = "recognition service failed to connect"
)

// Result is the speech stage output. Text is empty unless the stage succeeded.
type Result struct {
	Outcome outcome.Outcome `json:"outcome"`
	Reason  Reason          `json:"reason"`
	Text    string          `json:"text,omitempty"`
}

// Recognizer turns an audio clip into a transcript. Implementations never return
// errors: every failure is folded into the Result.
type Recognizer interface {
	Recognize(ctx context.Context, audio io.Reader) Result
}

func recognized(text string) Result {
	return Result{Outcome: outcome.Success(), Reason: ReasonRecognized, Text: text}
}

func noMatch() Result {
	return Result{Outcome: outcome.Failure(msgNoMatch), Reason: ReasonNoMatch}
}

func canceled() Result {
	return Result{Outcome: outcome.Failure(msgCanceled), Reason: ReasonCanceled}
}

func connectionFailed() Result {
	return Result{Outcome: outcome.Failure(msgConnect), Reason: ReasonConnectionError}
}

// FromText wraps an already transcribed command as a successful speech result.
func FromText(text string) Result {
	return recognized(text)
}

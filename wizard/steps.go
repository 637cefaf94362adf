// Package wizard drives a user through the claim flow:
// form → verification → attention → {bot | confirmation} → thanks.
package wizard

import (
	"errors"
	"fmt"
)

type Step string

const (
	StepForm         Step = "form"
	StepVerification Step = "verification"
	StepAttention    Step = "attention"
	StepBot          Step = "bot"
	StepConfirmation Step = "confirmation"
	StepThanks       Step = "thanks"
)

type Event string

const (
	EventFormSubmitted     Event = "form_submitted"
	EventGoBack            Event = "go_back"
	EventClaimAccepted     Event = "claim_accepted"
	EventChooseBot         Event = "choose_bot"
	EventChooseServer      Event = "choose_server"
	EventFriendRequestSent Event = "friend_request_sent"
	EventServerJoined      Event = "server_joined"
)

var ErrIllegalTransition = errors.New("illegal wizard transition")

// transitions is the whole flow. Anything not listed is rejected; thanks has no exits.
var transitions = map[Step]map[Event]Step{
	StepForm: {
		EventFormSubmitted: StepVerification,
	},
	StepVerification: {
		EventGoBack:        StepForm,
		EventClaimAccepted: StepAttention,
	},
	StepAttention: {
		EventChooseBot:    StepBot,
		EventChooseServer: StepConfirmation,
	},
	StepBot: {
		EventFriendRequestSent: StepThanks,
	},
	StepConfirmation: {
		EventServerJoined: StepThanks,
	},
}

// Next returns the step reached from `from` on `event`.
func Next(from Step, event Event) (Step, error) {
	to, ok := transitions[from][event]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, event, from)
	}
	return to, nil
}

const totalSteps = 5

// Progress maps a step to its position in the five-step progress bar.
// bot and confirmation are alternatives and share position 4.
func Progress(step Step) (current, total int) {
	switch step {
	case StepForm:
		return 1, totalSteps
	case StepVerification:
		return 2, totalSteps
	case StepAttention:
		return 3, totalSteps
	case StepBot, StepConfirmation:
		return 4, totalSteps
	case StepThanks:
		return 5, totalSteps
	}
	return 0, totalSteps
}

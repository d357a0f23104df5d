// Package prompt asks the user questions on the terminal.
package prompt

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt with Ctrl+C
var ErrAborted = errors.New("prompt aborted")

// ErrNoOptions is returned by Select when there is nothing to choose from
var ErrNoOptions = errors.New("no options to select from")

type askFunc func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

// Terminal prompts through survey. With AssumeYes set, confirmations are
// answered without asking.
type Terminal struct {
	AssumeYes bool
	ask       askFunc
}

// NewTerminal creates a terminal prompter
func NewTerminal(assumeYes bool) *Terminal {
	return &Terminal{AssumeYes: assumeYes, ask: survey.AskOne}
}

// Confirm asks a yes/no question. The default answer is yes.
func (t *Terminal) Confirm(ctx context.Context, title, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if t.AssumeYes {
		return true, nil
	}

	var out bool
	p := &survey.Confirm{
		Message: message,
		Help:    title,
		Default: true,
	}
	if err := t.ask(p, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

// Select asks the user to pick one of options and returns the chosen value
func (t *Terminal) Select(ctx context.Context, message string, options []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(options) == 0 {
		return "", ErrNoOptions
	}
	if len(options) == 1 {
		return options[0], nil
	}

	var out string
	p := &survey.Select{
		Message: message,
		Options: options,
	}
	if err := t.ask(p, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

// Input asks for a required line of text
func (t *Terminal) Input(ctx context.Context, message, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var out string
	p := &survey.Input{
		Message: message,
		Default: def,
	}
	if err := t.ask(p, &out, survey.WithValidator(survey.Required)); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted answers prompts from a fixed value without a terminal
func scripted(answer interface{}, err error, seen *[]survey.Prompt) askFunc {
	return func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
		*seen = append(*seen, p)
		if err != nil {
			return err
		}
		switch r := response.(type) {
		case *bool:
			*r = answer.(bool)
		case *string:
			*r = answer.(string)
		}
		return nil
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name      string
		assumeYes bool
		answer    bool
		err       error
		want      bool
		wantErr   error
		asked     int
	}{
		{name: "yes", answer: true, want: true, asked: 1},
		{name: "no", answer: false, want: false, asked: 1},
		{name: "assume yes skips the prompt", assumeYes: true, want: true, asked: 0},
		{name: "interrupt", err: terminal.InterruptErr, wantErr: ErrAborted, asked: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []survey.Prompt
			term := NewTerminal(tt.assumeYes)
			term.ask = scripted(tt.answer, tt.err, &seen)

			got, err := term.Confirm(context.Background(), "Create output directory", "Create /tmp/x?")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			require.Len(t, seen, tt.asked)
			if tt.asked > 0 {
				assert.Equal(t, "Create /tmp/x?", seen[0].(*survey.Confirm).Message)
			}
		})
	}
}

func TestConfirmCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTerminal(true).Confirm(ctx, "t", "m")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelect(t *testing.T) {
	var seen []survey.Prompt
	term := NewTerminal(false)
	term.ask = scripted("sales", nil, &seen)

	got, err := term.Select(context.Background(), "Template", []string{"engineering", "sales"})
	require.NoError(t, err)
	assert.Equal(t, "sales", got)
	assert.Len(t, seen, 1)

	got, err = term.Select(context.Background(), "Template", []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, "only", got)
	assert.Len(t, seen, 1, "single option is chosen without asking")

	_, err = term.Select(context.Background(), "Template", nil)
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestInput(t *testing.T) {
	var seen []survey.Prompt
	term := NewTerminal(false)
	term.ask = scripted("Acme", nil, &seen)

	got, err := term.Input(context.Background(), "Company Name", "")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got)

	term.ask = scripted(nil, errors.New("EOF"), &seen)
	_, err = term.Input(context.Background(), "Company Name", "")
	assert.EqualError(t, err, "EOF")
}

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := Newf(RootAmbiguous, "multiple roots found: %v", []string{"A", "B"})
	msg := err.Error()
	if !strings.Contains(msg, "ROOT_AMBIGUOUS") {
		t.Errorf("expected code in message, got %q", msg)
	}
	if !strings.Contains(msg, "A") || !strings.Contains(msg, "B") {
		t.Errorf("expected candidates in message, got %q", msg)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("unexpected end of JSON input")
	err := Wrap(GraphFileInvalid, "parsing graph", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "unexpected end of JSON input") {
		t.Errorf("cause missing from message: %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(ScoreUnknown, "no such score")); got != ScoreUnknown {
		t.Errorf("CodeOf = %s, want %s", got, ScoreUnknown)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %s, want %s", got, InternalError)
	}
}

func TestCodeOfSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("attr max_transversal_obstruction: %w",
		New(ModeInvalid, "mode character 'x' not in {m,l,s}"))
	if got := CodeOf(err); got != ModeInvalid {
		t.Errorf("CodeOf(wrapped) = %s, want %s", got, ModeInvalid)
	}
	double := fmt.Errorf("scoring patient 0055: %w", err)
	if got := CodeOf(double); got != ModeInvalid {
		t.Errorf("CodeOf(double-wrapped) = %s, want %s", got, ModeInvalid)
	}
	if !IsStructural(fmt.Errorf("load: %w", New(RootNotFound, "no root"))) {
		t.Error("IsStructural should see through wrapping")
	}
}

func TestIsStructural(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want bool
	}{
		{RootNotFound, true},
		{RootAmbiguous, true},
		{NotArborescence, true},
		{ScoreUnknown, false},
		{ModeInvalid, false},
	}
	for _, tc := range cases {
		if got := IsStructural(New(tc.code, "x")); got != tc.want {
			t.Errorf("IsStructural(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

package domain

import "testing"

func TestPayoutTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCanceled, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusCanceled, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusPending, false},
		{StatusCanceled, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCanceled}
	all := []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCanceled}
	for _, from := range terminal {
		for _, to := range all {
			if from == to {
				continue
			}
			if CanTransition(from, to) {
				t.Errorf("%s must be terminal, found edge to %s", from, to)
			}
		}
	}
}

func TestParsePayoutStatus(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCanceled} {
		got, ok := ParseStatus(string(status))
		if !ok || got != status {
			t.Errorf("ParseStatus(%q) = %q, %v", status, got, ok)
		}
	}
	if _, ok := ParseStatus("done"); ok {
		t.Errorf("ParseStatus accepted an unknown status")
	}
}

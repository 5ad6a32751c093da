// Package history keeps conversation turns: a bounded, truncated window for
// stream requests and SQLite persistence across client restarts.
package history

import "unicode/utf8"

// Turn is one prior exchange message included in stream requests.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Window bounds how much history a stream request carries: at most MaxTurns
// recent turns, each truncated to MaxChars.
type Window struct {
	MaxTurns int
	MaxChars int
}

// DefaultWindow matches the backend's context budget.
func DefaultWindow() Window {
	return Window{MaxTurns: 20, MaxChars: 4000}
}

// Apply returns the bounded, truncated view of turns. The input is never
// mutated.
func (w Window) Apply(turns []Turn) []Turn {
	if w.MaxTurns > 0 && len(turns) > w.MaxTurns {
		turns = turns[len(turns)-w.MaxTurns:]
	}
	out := make([]Turn, len(turns))
	for i, turn := range turns {
		if w.MaxChars > 0 && len(turn.Content) > w.MaxChars {
			// Back off to a rune boundary so the cut never produces
			// invalid UTF-8 in the request payload.
			cut := w.MaxChars
			for cut > 0 && !utf8.RuneStart(turn.Content[cut]) {
				cut--
			}
			turn.Content = turn.Content[:cut]
		}
		out[i] = turn
	}
	return out
}

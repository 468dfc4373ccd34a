package agent

import (
	"strings"

	"github.com/tripalhq/tripal/internal/llm"
)

// Classification is the verdict for one run-log event.
type Classification int

const (
	// Ignore: not user-visible. Unmatched paths, empty tokens, empty
	// finals of tool-request rounds, and anything after the terminal
	// event. Never an error.
	Ignore Classification = iota

	// Token: a partial text fragment to forward immediately.
	Token

	// Final: the terminal event carrying the complete answer. At most
	// one per turn.
	Final
)

// Classifier isolates user-visible events from a turn's run log. One
// classifier instance serves exactly one turn.
//
// Matching is structural, on the path string: the prefix marker selects
// top-level model invocations, the suffix selects the event kind. Repeated
// invocations within a turn vary by a numeric path suffix, so only the
// prefix is matched — deliberately, since the full path is not a stable
// contract of the backend.
type Classifier struct {
	marker string
	done   bool
}

// NewClassifier creates a classifier for events of the given backend
// component.
func NewClassifier(component string) *Classifier {
	return &Classifier{marker: llm.PathPrefix + component}
}

// Classify returns the verdict for ev and, for Token and Final, the text
// payload. Events arriving after the terminal event are not processed.
func (c *Classifier) Classify(ev llm.RawEvent) (Classification, string) {
	if c.done {
		return Ignore, ""
	}
	if !strings.HasPrefix(ev.Path, c.marker) {
		return Ignore, ""
	}

	switch {
	case strings.HasSuffix(ev.Path, llm.StreamedSuffix):
		if ev.Token == "" {
			return Ignore, ""
		}
		return Token, ev.Token

	case strings.HasSuffix(ev.Path, llm.FinalSuffix):
		// Tool-request rounds complete without text; their empty
		// final events do not close the turn.
		if ev.Final == "" {
			return Ignore, ""
		}
		c.done = true
		return Final, ev.Final
	}

	return Ignore, ""
}

// Done reports whether the terminal event has been seen.
func (c *Classifier) Done() bool {
	return c.done
}

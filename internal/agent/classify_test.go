package agent

import (
	"testing"

	"github.com/tripalhq/tripal/internal/llm"
)

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ev       llm.RawEvent
		want     Classification
		wantText string
	}{
		{
			name:     "token event",
			ev:       llm.RawEvent{Path: "/logs/ChatModel/streamed_output_str/-", Token: "東京"},
			want:     Token,
			wantText: "東京",
		},
		{
			name:     "token event of a later round matches by prefix",
			ev:       llm.RawEvent{Path: "/logs/ChatModel:2/streamed_output_str/-", Token: "は"},
			want:     Token,
			wantText: "は",
		},
		{
			name: "empty token dropped",
			ev:   llm.RawEvent{Path: "/logs/ChatModel/streamed_output_str/-", Token: ""},
			want: Ignore,
		},
		{
			name:     "final event",
			ev:       llm.RawEvent{Path: "/logs/ChatModel/final_output", Final: "完成した回答"},
			want:     Final,
			wantText: "完成した回答",
		},
		{
			name: "empty final of a tool round ignored",
			ev:   llm.RawEvent{Path: "/logs/ChatModel/final_output", Final: ""},
			want: Ignore,
		},
		{
			name: "tool execution path ignored",
			ev:   llm.RawEvent{Path: "/logs/Location_Information", Token: "x"},
			want: Ignore,
		},
		{
			name: "unmatched marker ignored",
			ev:   llm.RawEvent{Path: "/logs/OtherChain/streamed_output_str/-", Token: "x"},
			want: Ignore,
		},
		{
			name: "marker prefix without known suffix ignored",
			ev:   llm.RawEvent{Path: "/logs/ChatModel/metadata", Token: "x"},
			want: Ignore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewClassifier(llm.Component)
			got, text := c.Classify(tt.ev)
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
			if text != tt.wantText {
				t.Errorf("Classify() text = %q, want %q", text, tt.wantText)
			}
		})
	}
}

func TestClassifier_NothingAfterFinal(t *testing.T) {
	t.Parallel()

	c := NewClassifier(llm.Component)

	kind, _ := c.Classify(llm.RawEvent{Path: "/logs/ChatModel/final_output", Final: "done"})
	if kind != Final {
		t.Fatalf("Classify(final) = %v, want Final", kind)
	}
	if !c.Done() {
		t.Fatal("Done() = false after final event")
	}

	kind, _ = c.Classify(llm.RawEvent{Path: "/logs/ChatModel/streamed_output_str/-", Token: "late"})
	if kind != Ignore {
		t.Errorf("Classify(token after final) = %v, want Ignore", kind)
	}
	kind, _ = c.Classify(llm.RawEvent{Path: "/logs/ChatModel/final_output", Final: "again"})
	if kind != Ignore {
		t.Errorf("Classify(second final) = %v, want Ignore", kind)
	}
}

func TestClassifier_IntermediateRoundsThenFinal(t *testing.T) {
	t.Parallel()

	c := NewClassifier(llm.Component)

	// Round 0 requests a tool: no tokens, empty final.
	if kind, _ := c.Classify(llm.RawEvent{Path: "/logs/ChatModel/final_output", Final: ""}); kind != Ignore {
		t.Fatalf("empty final classified as %v, want Ignore", kind)
	}
	// Round 1 streams the answer.
	if kind, _ := c.Classify(llm.RawEvent{Path: "/logs/ChatModel:1/streamed_output_str/-", Token: "答え"}); kind != Token {
		t.Fatalf("round 1 token classified as %v, want Token", kind)
	}
	if kind, _ := c.Classify(llm.RawEvent{Path: "/logs/ChatModel:1/final_output", Final: "答え"}); kind != Final {
		t.Fatalf("round 1 final classified as %v, want Final", kind)
	}
}

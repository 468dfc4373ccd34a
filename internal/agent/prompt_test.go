package agent

import (
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
)

func TestAssembleMessages_EmptyHistory(t *testing.T) {
	t.Parallel()

	messages := assembleMessages(nil, "東京に行きたい", nil)
	if len(messages) != 3 {
		t.Fatalf("assembleMessages() returned %d messages, want 3", len(messages))
	}

	if messages[0].Role != ai.RoleSystem || messages[0].Content[0].Text != injectionDefensePrompt {
		t.Error("messages[0] is not the injection-defense preamble")
	}
	if messages[1].Role != ai.RoleSystem || messages[1].Content[0].Text != systemPrompt {
		t.Error("messages[1] is not the system prompt")
	}

	last := messages[len(messages)-1]
	if last.Role != ai.RoleUser {
		t.Errorf("last message role = %v, want user", last.Role)
	}
	if last.Content[0].Text != "東京に行きたい" {
		t.Errorf("last message text = %q, want the user input verbatim", last.Content[0].Text)
	}
}

func TestAssembleMessages_HistoryOrder(t *testing.T) {
	t.Parallel()

	history := []Turn{
		{Input: "質問1", Output: "回答1", Timestamp: time.Now()},
		{Input: "質問2", Output: "回答2", Timestamp: time.Now()},
	}
	messages := assembleMessages(history, "質問3", nil)

	// preamble, system, then user/model pairs in chronological order
	wantTexts := []string{"質問1", "回答1", "質問2", "回答2", "質問3"}
	wantRoles := []ai.Role{ai.RoleUser, ai.RoleModel, ai.RoleUser, ai.RoleModel, ai.RoleUser}
	got := messages[2:]
	if len(got) != len(wantTexts) {
		t.Fatalf("history section has %d messages, want %d", len(got), len(wantTexts))
	}
	for i := range wantTexts {
		if got[i].Role != wantRoles[i] {
			t.Errorf("messages[%d].Role = %v, want %v", i+2, got[i].Role, wantRoles[i])
		}
		if got[i].Content[0].Text != wantTexts[i] {
			t.Errorf("messages[%d] text = %q, want %q", i+2, got[i].Content[0].Text, wantTexts[i])
		}
	}
}

func TestAssembleMessages_ScratchpadPreservesPairs(t *testing.T) {
	t.Parallel()

	request := ai.NewModelMessage(ai.NewToolRequestPart(&ai.ToolRequest{
		Name:  "Location_Information",
		Input: map[string]any{"loc_search": "東京タワー"},
	}))
	result := ai.NewMessage(ai.RoleTool, nil, ai.NewToolResponsePart(&ai.ToolResponse{
		Name:   "Location_Information",
		Output: `{"東京タワー": {}}`,
	}))

	messages := assembleMessages(nil, "東京の観光名所は?", []*ai.Message{request, result})

	n := len(messages)
	if messages[n-2] != request || messages[n-1] != result {
		t.Error("scratchpad pair not appended in call order after the user message")
	}
	if messages[n-3].Content[0].Text != "東京の観光名所は?" {
		t.Error("user message must precede the scratchpad")
	}
}

func TestAssembleMessages_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	history := []Turn{{Input: "a", Output: "b"}}
	scratchpad := []*ai.Message{ai.NewModelMessage(ai.NewTextPart("step"))}

	_ = assembleMessages(history, "c", scratchpad)

	if history[0].Input != "a" || history[0].Output != "b" {
		t.Error("history mutated")
	}
	if len(scratchpad) != 1 || scratchpad[0].Content[0].Text != "step" {
		t.Error("scratchpad mutated")
	}
}

package agent

import "github.com/firebase/genkit/go/ai"

// assembleMessages builds the ordered prompt for one model round. The
// composition order is fixed and significant:
//
//  1. injection-defense preamble
//  2. travel-consultant system instructions
//  3. session history, chronological
//  4. the current user message
//  5. the scratchpad: tool request/response pairs from earlier rounds of
//     this turn, so the model sees intermediate results before acting again
//
// Pure function: it never mutates the history, the scratchpad, or any
// session state.
func assembleMessages(history []Turn, input string, scratchpad []*ai.Message) []*ai.Message {
	messages := make([]*ai.Message, 0, 3+2*len(history)+len(scratchpad))

	messages = append(messages,
		ai.NewSystemMessage(ai.NewTextPart(injectionDefensePrompt)),
		ai.NewSystemMessage(ai.NewTextPart(systemPrompt)),
	)
	for _, turn := range history {
		messages = append(messages,
			ai.NewUserMessage(ai.NewTextPart(turn.Input)),
			ai.NewModelMessage(ai.NewTextPart(turn.Output)),
		)
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))
	messages = append(messages, scratchpad...)

	return messages
}

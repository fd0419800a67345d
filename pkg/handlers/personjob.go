package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dipeo/execengine/pkg/conversation"
	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/ports"
	"github.com/dipeo/execengine/pkg/types"
)

// PersonJobHandler calls an LLM "person" with a prompt assembled from the
// node's configured default/first-only prompts and its resolved inputs,
// threading the call through the shared conversation store so repeated
// visits (loop iterations) see prior turns per memorize_to.
type PersonJobHandler struct{}

func (h *PersonJobHandler) Kind() types.NodeKind { return types.KindPersonJob }

func (h *PersonJobHandler) Execute(ctx ExecutionContext) (envelope.Envelope, error) {
	node := ctx.Node()
	p := node.PersonJob
	if p == nil {
		return envelope.Envelope{}, types.ErrMissingRequiredField("person_job")
	}

	llm := ctx.Ports().LLM
	if llm == nil {
		return envelope.Envelope{}, fmt.Errorf("person_job %s: no LLMServicePort configured", node.ID)
	}

	store := ctx.Conversations()
	if store == nil {
		store = conversation.NewStore()
	}
	store.Initialize(p.PersonID)

	iteration := len(store.History(p.PersonID, conversation.SelectAll, 0))
	prompt := p.DefaultPrompt
	if iteration == 0 && p.FirstOnlyPrompt != nil && *p.FirstOnlyPrompt != "" {
		prompt = *p.FirstOnlyPrompt
	}

	policy := conversation.SelectAll
	atMost := 0
	if p.MemorizeTo != nil {
		policy = conversation.SelectionPolicy(*p.MemorizeTo)
	}
	if p.AtMost != nil {
		atMost = *p.AtMost
		if policy == conversation.SelectAll {
			policy = conversation.SelectLastN
		}
	}

	history := store.History(p.PersonID, policy, atMost)

	var messages []ports.LLMMessage
	for _, m := range history {
		messages = append(messages, ports.LLMMessage{Role: m.Role, Content: m.Content})
	}

	inputText := combineInputs(ctx.Inputs())
	userTurn := prompt
	if inputText != "" {
		userTurn = prompt + "\n\n" + inputText
	}
	messages = append(messages, ports.LLMMessage{Role: "user", Content: userTurn})

	req := ports.LLMRequest{Messages: messages}
	if p.TextFormat != nil && *p.TextFormat != "" {
		req.JSONSchema = *p.TextFormat
	}

	resp, err := llm.Complete(ctx.Context(), req)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("person_job %s: llm call failed: %w", node.ID, err)
	}

	now := time.Now()
	store.Append(p.PersonID, conversation.Message{Role: "user", Content: userTurn, Timestamp: now, NodeID: string(node.ID)})
	store.Append(p.PersonID, conversation.Message{Role: "assistant", Content: resp.Content, Timestamp: now, NodeID: string(node.ID)})

	out := envelope.NewText(resp.Content).WithMeta(envelope.Meta{
		ProducedByNode: string(node.ID),
		Labels: map[string]string{
			"llm_prompt_tokens": strconv.Itoa(resp.PromptTokens),
			"llm_output_tokens": strconv.Itoa(resp.OutputTokens),
		},
	})
	if p.TextFormat != nil && *p.TextFormat != "" {
		return out, nil
	}
	return out, nil
}

func (h *PersonJobHandler) Validate(node types.Node) error {
	return nil
}

func combineInputs(inputs map[string]envelope.Envelope) string {
	if len(inputs) == 0 {
		return ""
	}
	var out string
	for key, env := range inputs {
		text, err := env.Text()
		if err != nil {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += fmt.Sprintf("%s: %s", key, text)
	}
	return out
}

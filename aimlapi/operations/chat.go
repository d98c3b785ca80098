package operations

import (
	"context"
	"strings"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/extract"
	"github.com/BaSui01/aimlflow/aimlapi/fields"
	"github.com/BaSui01/aimlflow/aimlapi/request"
	"github.com/BaSui01/aimlflow/types"
)

const chatPath = "/v1/chat/completions"

var chatFields = [][2]string{
	{"temperature", "temperature"},
	{"topP", "top_p"},
	{"maxTokens", "max_tokens"},
	{"frequencyPenalty", "frequency_penalty"},
	{"presencePenalty", "presence_penalty"},
}

// ChatMessages builds the message list for a chat request. With structured
// messages enabled, blank entries are skipped, role "custom" takes
// customRole (default user), and tool messages must name the tool call
// they answer.
func ChatMessages(params fields.Bag) ([]map[string]any, error) {
	if !params.Bool("useStructuredMessages") {
		return []map[string]any{{"role": "user", "content": params.String("prompt")}}, nil
	}

	raw, _ := params.Get("messages").([]any)
	messages := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		m := toBag(entry)
		content, _ := m.Get("content").(string)
		if strings.TrimSpace(content) == "" {
			continue
		}

		role := m.String("role")
		switch {
		case strings.EqualFold(role, "custom"):
			role = m.StringOr("customRole", "user")
		case role == "":
			role = "user"
		}

		msg := map[string]any{"role": role, "content": content}
		if strings.EqualFold(role, "tool") {
			id := m.String("tool_call_id")
			if id == "" {
				return nil, types.NewValidationError(
					"tool messages must include the tool call id returned with the assistant tool invocation")
			}
			msg["tool_call_id"] = id
		}
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return nil, types.NewValidationError("at least one message with content is required when using the message list")
	}
	return messages, nil
}

func toBag(v any) fields.Bag {
	switch m := v.(type) {
	case map[string]any:
		return fields.Bag(m)
	case fields.Bag:
		return m
	}
	return fields.Bag{}
}

// ChatBody builds the chat completion request body.
func ChatBody(model string, params fields.Bag) (map[string]any, error) {
	messages, err := ChatMessages(params)
	if err != nil {
		return nil, err
	}
	opts := params.Bag("options")

	body := map[string]any{"model": model, "messages": messages}
	for _, m := range chatFields {
		fields.Set(body, m[1], opts.Get(m[0]))
	}
	if opts.String("responseFormat") == "text" {
		body["response_format"] = map[string]any{"type": "text"}
	}
	if opts.Bool("audioOutput") {
		body["modalities"] = []string{"text", "audio"}
		audio := map[string]any{"voice": opts.StringOr("audioVoice", "alloy")}
		fields.Set(audio, "format", opts.String("audioFormat"))
		body["audio"] = audio
	}
	return body, nil
}

// ExecuteChatCompletion sends a chat completion request.
func ExecuteChatCompletion(ctx context.Context, ec *ExecContext) (Output, error) {
	mode, err := extractMode(aimlapi.OpChatCompletion, ec)
	if err != nil {
		return nil, err
	}
	body, err := ChatBody(ec.Model, ec.params())
	if err != nil {
		return nil, err
	}

	resp, err := ec.call(ctx, chatPath, request.WithBody(body))
	if err != nil {
		return nil, err
	}

	choices := resp.Root().Get("choices")
	switch mode {
	case "text":
		return Output{"content": extract.ChatText(resp)}, nil
	case "messages":
		messages := []any{}
		for _, c := range choices.Items() {
			if msg := c.Get("message"); msg != nil {
				messages = append(messages, msg.Interface())
			}
		}
		return Output{"result": messages}, nil
	case "choices":
		result := choices.Interface()
		if result == nil {
			result = []any{}
		}
		return Output{"result": result}, nil
	default:
		return Output{"result": resp.Value()}, nil
	}
}

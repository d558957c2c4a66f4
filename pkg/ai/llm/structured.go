package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MalformedResponseError is returned when the model reply does not match the
// requested schema.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed llm response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// CallStructured sends one system and one user message, then decodes the
// reply into T and validates it with T's validate tags. Transport errors are
// returned as is; anything wrong with the reply is a *MalformedResponseError.
func CallStructured[T any](ctx context.Context, client LLMClient, systemPrompt, userMessage string) (*T, error) {
	resp, err := client.Chat(ctx, ChatRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		JSONMode: true,
	})
	if err != nil {
		return nil, err
	}

	return Decode[T](resp.Message)
}

// Decode parses a raw model reply into T.
func Decode[T any](raw string) (*T, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, &MalformedResponseError{Raw: raw, Err: fmt.Errorf("empty response")}
	}

	out := new(T)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		// Some models wrap the object in prose
		obj, ok := extractObject(cleaned)
		if !ok {
			return nil, &MalformedResponseError{Raw: raw, Err: err}
		}
		if err := json.Unmarshal([]byte(obj), out); err != nil {
			return nil, &MalformedResponseError{Raw: raw, Err: err}
		}
	}

	if err := validate.Struct(out); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	return out, nil
}

// stripFences removes markdown code fence lines.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	var kept []string
	for _, line := range strings.Split(cleaned, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

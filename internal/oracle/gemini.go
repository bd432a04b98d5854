package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GeminiClient drives decisions through Google's Gemini API. Gemini function
// calls carry no call IDs, so this client mints one per request and matches
// results back by function name.
type GeminiClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("oracle: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("oracle: create gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelID: modelID}, nil
}

// Decide sends the conversation with the tool catalog attached.
func (c *GeminiClient) Decide(ctx context.Context, req DecideRequest) (Decision, error) {
	model := c.model(req.System, req.MaxTokens, req.Temperature)
	if len(req.Tools) > 0 {
		model.Tools = geminiTools(req.Tools)
	}

	resp, err := c.send(ctx, model, req.Messages)
	if err != nil {
		return Decision{}, err
	}
	return geminiDecision(resp)
}

// Synthesize sends the conversation with no tools and returns plain text.
func (c *GeminiClient) Synthesize(ctx context.Context, req SynthesizeRequest) (string, error) {
	model := c.model(req.System, req.MaxTokens, req.Temperature)

	resp, err := c.send(ctx, model, req.Messages)
	if err != nil {
		return "", err
	}
	decision, err := geminiDecision(resp)
	if err != nil {
		return "", err
	}
	if decision.Kind != DecisionFinalText {
		return "", nil
	}
	return decision.Text, nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GeminiClient) model(system string, maxTokens int32, temperature float32) *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.modelID)
	if temperature >= 0 {
		model.SetTemperature(temperature)
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(maxTokens)
	}
	if strings.TrimSpace(system) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	return model
}

// send folds all but the last message into chat history and sends the last
// one through the session.
func (c *GeminiClient) send(ctx context.Context, model *genai.GenerativeModel, msgs []Message) (*genai.GenerateContentResponse, error) {
	if len(msgs) == 0 {
		return nil, errors.New("oracle: gemini requires at least one message")
	}

	cs := model.StartChat()
	for _, msg := range msgs[:len(msgs)-1] {
		content, err := geminiContent(msg)
		if err != nil {
			return nil, err
		}
		if content != nil {
			cs.History = append(cs.History, content)
		}
	}

	last := msgs[len(msgs)-1]
	parts, err := geminiParts(last)
	if err != nil {
		return nil, err
	}

	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("oracle: gemini send: %w", err)
	}
	return resp, nil
}

func geminiContent(msg Message) (*genai.Content, error) {
	parts, err := geminiParts(msg)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, nil
	}

	role := "user"
	switch msg.Role {
	case RoleAssistant, RoleToolRequest:
		role = "model"
	case RoleToolResult:
		role = "function"
	}
	return &genai.Content{Role: role, Parts: parts}, nil
}

func geminiParts(msg Message) ([]genai.Part, error) {
	switch msg.Role {
	case RoleUser, RoleAssistant:
		if strings.TrimSpace(msg.Content) == "" {
			return nil, nil
		}
		return []genai.Part{genai.Text(msg.Content)}, nil
	case RoleToolRequest:
		parts := make([]genai.Part, 0, len(msg.Requests))
		for _, req := range msg.Requests {
			parts = append(parts, genai.FunctionCall{Name: req.Name, Args: req.Arguments})
		}
		return parts, nil
	case RoleToolResult:
		if msg.Result == nil {
			return nil, errors.New("oracle: tool_result message missing result")
		}
		return []genai.Part{genai.FunctionResponse{
			Name:     msg.Result.Name,
			Response: map[string]any{"content": msg.Result.Content},
		}}, nil
	default:
		return nil, fmt.Errorf("oracle: unsupported role %q", msg.Role)
	}
}

func geminiDecision(resp *genai.GenerateContentResponse) (Decision, error) {
	if len(resp.Candidates) == 0 {
		return Decision{}, errors.New("oracle: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return Decision{}, errors.New("oracle: gemini returned empty content")
	}

	var text strings.Builder
	var requests []ToolRequest
	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			requests = append(requests, ToolRequest{
				ID:        uuid.NewString(),
				Name:      v.Name,
				Arguments: v.Args,
			})
		}
	}

	if len(requests) > 0 {
		return Decision{Kind: DecisionToolRequests, Requests: requests}, nil
	}
	return Decision{Kind: DecisionFinalText, Text: strings.TrimSpace(text.String())}, nil
}

func geminiTools(tools []ToolSpec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schemaFromMap(tool.InputSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// schemaFromMap converts a JSON Schema object into the genai schema type. Only
// the subset the tool catalog uses is handled.
func schemaFromMap(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{Type: schemaType(schema["type"])}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				out.Properties[name] = schemaFromMap(sub)
			}
		}
	}
	if required, ok := schema["required"].([]string); ok {
		out.Required = required
	} else if rawRequired, ok := schema["required"].([]any); ok {
		for _, item := range rawRequired {
			if s, ok := item.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = schemaFromMap(items)
	}
	return out
}

func schemaType(raw any) genai.Type {
	s, _ := raw.(string)
	switch s {
	case "object":
		return genai.TypeObject
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeUnspecified
	}
}

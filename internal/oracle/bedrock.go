package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient drives decisions through the Bedrock Converse API.
type BedrockClient struct {
	api     bedrockConverseAPI
	modelID string
}

// NewBedrockClient builds a client for the given model.
func NewBedrockClient(api bedrockConverseAPI, modelID string) *BedrockClient {
	if api == nil {
		panic("oracle: bedrock converse client cannot be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		panic("oracle: bedrock model id cannot be empty")
	}
	return &BedrockClient{api: api, modelID: modelID}
}

// Decide sends the conversation with the tool catalog attached and classifies
// the model's answer as final text or tool requests.
func (c *BedrockClient) Decide(ctx context.Context, req DecideRequest) (Decision, error) {
	input, err := c.converseInput(req.System, req.Messages, req.MaxTokens, req.Temperature)
	if err != nil {
		return Decision{}, err
	}
	if len(req.Tools) > 0 {
		toolConfig, err := toolConfiguration(req.Tools)
		if err != nil {
			return Decision{}, err
		}
		input.ToolConfig = toolConfig
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return Decision{}, fmt.Errorf("oracle: bedrock converse: %w", err)
	}
	return decisionFromOutput(out)
}

// Synthesize sends the conversation without any tool catalog and returns the
// model's text.
func (c *BedrockClient) Synthesize(ctx context.Context, req SynthesizeRequest) (string, error) {
	input, err := c.converseInput(req.System, req.Messages, req.MaxTokens, req.Temperature)
	if err != nil {
		return "", err
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("oracle: bedrock converse: %w", err)
	}

	decision, err := decisionFromOutput(out)
	if err != nil {
		return "", err
	}
	// Without a tool config the model cannot legitimately request tools, so
	// anything non-text is treated as an empty reply for the caller to handle.
	if decision.Kind != DecisionFinalText {
		return "", nil
	}
	return decision.Text, nil
}

func (c *BedrockClient) converseInput(system string, msgs []Message, maxTokens int32, temperature float32) (*bedrockruntime.ConverseInput, error) {
	var systemBlocks []brtypes.SystemContentBlock
	if strings.TrimSpace(system) != "" {
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: system})
	}

	messages, err := bedrockMessages(msgs)
	if err != nil {
		return nil, err
	}

	inference := &brtypes.InferenceConfiguration{}
	if maxTokens > 0 {
		inference.MaxTokens = aws.Int32(maxTokens)
	}
	if temperature >= 0 {
		inference.Temperature = aws.Float32(temperature)
	}
	if inference.MaxTokens == nil && inference.Temperature == nil {
		inference = nil
	}

	return &bedrockruntime.ConverseInput{
		ModelId:         aws.String(c.modelID),
		System:          systemBlocks,
		Messages:        messages,
		InferenceConfig: inference,
	}, nil
}

func bedrockMessages(msgs []Message) ([]brtypes.Message, error) {
	out := make([]brtypes.Message, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleUser:
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			out = append(out, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: msg.Content},
				},
			})
		case RoleAssistant:
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			out = append(out, brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: msg.Content},
				},
			})
		case RoleToolRequest:
			blocks := make([]brtypes.ContentBlock, 0, len(msg.Requests))
			for _, req := range msg.Requests {
				blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{
					Value: brtypes.ToolUseBlock{
						ToolUseId: aws.String(req.ID),
						Name:      aws.String(req.Name),
						Input:     document.NewLazyDocument(req.Arguments),
					},
				})
			}
			out = append(out, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: blocks,
			})
		case RoleToolResult:
			if msg.Result == nil {
				return nil, errors.New("oracle: tool_result message missing result")
			}
			out = append(out, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberToolResult{
						Value: brtypes.ToolResultBlock{
							ToolUseId: aws.String(msg.Result.ID),
							Content: []brtypes.ToolResultContentBlock{
								&brtypes.ToolResultContentBlockMemberText{Value: msg.Result.Content},
							},
						},
					},
				},
			})
		default:
			return nil, fmt.Errorf("oracle: unsupported role %q", msg.Role)
		}
	}
	return out, nil
}

func toolConfiguration(tools []ToolSpec) (*brtypes.ToolConfiguration, error) {
	out := make([]brtypes.Tool, 0, len(tools))
	for _, tool := range tools {
		if strings.TrimSpace(tool.Name) == "" {
			return nil, errors.New("oracle: tool spec missing name")
		}
		out = append(out, &brtypes.ToolMemberToolSpec{
			Value: brtypes.ToolSpecification{
				Name:        aws.String(tool.Name),
				Description: aws.String(tool.Description),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(tool.InputSchema),
				},
			},
		})
	}
	return &brtypes.ToolConfiguration{Tools: out}, nil
}

func decisionFromOutput(out *bedrockruntime.ConverseOutput) (Decision, error) {
	if out == nil || out.Output == nil {
		return Decision{}, errors.New("oracle: bedrock returned empty output")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return Decision{}, fmt.Errorf("oracle: unexpected bedrock output type %T", out.Output)
	}

	var text strings.Builder
	var requests []ToolRequest
	for _, block := range msgOut.Value.Content {
		switch v := block.(type) {
		case *brtypes.ContentBlockMemberText:
			text.WriteString(v.Value)
		case *brtypes.ContentBlockMemberToolUse:
			var args map[string]any
			if v.Value.Input != nil {
				if err := v.Value.Input.UnmarshalSmithyDocument(&args); err != nil {
					return Decision{}, fmt.Errorf("oracle: decode tool input: %w", err)
				}
			}
			requests = append(requests, ToolRequest{
				ID:        aws.ToString(v.Value.ToolUseId),
				Name:      aws.ToString(v.Value.Name),
				Arguments: args,
			})
		}
	}

	if len(requests) > 0 {
		return Decision{Kind: DecisionToolRequests, Requests: requests}, nil
	}
	return Decision{Kind: DecisionFinalText, Text: strings.TrimSpace(text.String())}, nil
}

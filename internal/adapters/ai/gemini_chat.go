package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"atlas/pkg/errors"
)

// Ensure GeminiProvider implements ChatProvider
var _ ChatProvider = (*GeminiProvider)(nil)

// Chat sends a chat completion request to the Gemini API.
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key not configured")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{
			Provider: ProviderNameGoogle,
			Limit:    float64(p.limiter.Limit()) * 60,
			Err:      err,
		}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	contents, cfg := p.convertRequest(req)

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrExternal, fmt.Sprintf("gemini generate content: %v", err))
	}

	return p.convertResponse(req.Model, resp), nil
}

// convertRequest maps our chat format to genai contents and config.
// System messages become SystemInstruction, tool results become
// FunctionResponse parts.
func (p *GeminiProvider) convertRequest(req ChatRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{}

	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		cfg.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	if len(req.Tools) > 0 {
		tool := &genai.Tool{}
		for _, t := range req.Tools {
			tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
				Name:                 t.Function.Name,
				Description:          t.Function.Description,
				ParametersJsonSchema: t.Function.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{tool}
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			cfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
			continue
		}

		content := &genai.Content{
			Role:  convertRoleToGemini(msg.Role),
			Parts: []*genai.Part{},
		}

		if msg.Role == RoleTool {
			var resultMap map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Content), &resultMap); err != nil {
				resultMap = map[string]interface{}{"result": msg.Content}
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     msg.Name,
					Response: resultMap,
				},
			})
			contents = append(contents, content)
			continue
		}

		if msg.Content != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
		}

		for _, tc := range msg.ToolCalls {
			var args map[string]interface{}
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = map[string]interface{}{}
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: tc.Function.Name,
					Args: args,
				},
			})
		}

		contents = append(contents, content)
	}

	return contents, cfg
}

func (p *GeminiProvider) convertResponse(model string, resp *genai.GenerateContentResponse) *ChatResponse {
	chatResp := &ChatResponse{
		ID:    uuid.NewString(),
		Model: model,
	}

	if resp.UsageMetadata != nil {
		chatResp.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	for i, cand := range resp.Candidates {
		msg := Message{Role: RoleAssistant}

		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					if msg.Content != "" {
						msg.Content += "\n"
					}
					msg.Content += part.Text
				}
				if part.FunctionCall != nil {
					args, _ := json.Marshal(part.FunctionCall.Args)
					msg.ToolCalls = append(msg.ToolCalls, ToolCall{
						ID:   uuid.NewString(),
						Type: "function",
						Function: FunctionCall{
							Name:      part.FunctionCall.Name,
							Arguments: string(args),
						},
					})
				}
			}
		}

		finishReason := FinishReasonStop
		if len(msg.ToolCalls) > 0 {
			finishReason = FinishReasonToolCalls
		} else if cand.FinishReason == genai.FinishReasonMaxTokens {
			finishReason = FinishReasonLength
		}

		chatResp.Choices = append(chatResp.Choices, Choice{
			Index:        i,
			Message:      msg,
			FinishReason: finishReason,
		})
	}

	return chatResp
}

func convertRoleToGemini(role MessageRole) string {
	switch role {
	case RoleAssistant:
		return "model"
	case RoleTool:
		return "user"
	default:
		return "user"
	}
}

package agent

import (
	"context"
	"fmt"

	"github.com/etnz/cryptotax/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Expert is a chat with a dedicated model, optionally equipped with tools.
type Expert struct {
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	ModelName   string                       `json:"model_name"`
	Config      *genai.GenerateContentConfig `json:"config"`
	Library     Library                      `json:"-"`
	Logger      *zap.SugaredLogger           `json:"-"`
	chat        *genai.Chat
}

// Start creates the expert's chat.
func (e *Expert) Start(ctx context.Context, client *genai.Client) error {
	model := e.ModelName
	if model == "" {
		model = DefaultModel
	}
	chat, err := client.Chats.Create(ctx, model, e.Config, nil)
	if err != nil {
		return fmt.Errorf("cannot start expert %s: %w", e.Name, err)
	}
	e.chat = chat
	return nil
}

// Ask sends parts to the expert and returns its answer. Function calls are
// answered from the expert's library until the expert answers with content.
func (e *Expert) Ask(ctx context.Context, parts ...*genai.Part) (*genai.Content, error) {
	if e.chat == nil {
		return nil, fmt.Errorf("expert %s is not started", e.Name)
	}
	resp, err := e.chat.Send(ctx, parts...)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from expert %s", e.Name)
	}

	var responses []*genai.Part
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.FunctionCall == nil {
			continue
		}
		if e.Library == nil {
			return nil, fmt.Errorf("expert %s doesn't know how to make function calls", e.Name)
		}
		logger.OrNop(e.Logger).Debugw("function call", "expert", e.Name, "function", p.FunctionCall.Name, "args", p.FunctionCall.Args)
		responses = append(responses, &genai.Part{FunctionResponse: e.Library(ctx, p.FunctionCall)})
	}
	if len(responses) > 0 {
		// ask again with the responses until there is a real answer.
		return e.Ask(ctx, responses...)
	}
	return resp.Candidates[0].Content, nil
}

// Declaration returns the function declaration to ask this expert.
func (e *Expert) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        e.Name,
		Description: e.Description,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {
					Type:        genai.TypeString,
					Description: "The question to ask the expert.",
				},
			},
			Required: []string{"question"},
		},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "Expert's response.",
		},
	}
}

// Call asks the expert the question in args.
func (e *Expert) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	d := e.Declaration()
	question, ok := args["question"].(string)
	if !ok {
		return errorResponse(id, d.Name, fmt.Errorf("invalid question type, got %T, expected string", args["question"]))
	}

	content, err := e.Ask(ctx, &genai.Part{Text: question})
	if err != nil {
		return errorResponse(id, d.Name, fmt.Errorf("something went wrong while calling the expert: %w", err))
	}
	answer := text(content)
	logger.OrNop(e.Logger).Debugw("expert answered", "expert", e.Name, "question", question, "answer", answer)
	return outputResponse(id, d.Name, answer)
}

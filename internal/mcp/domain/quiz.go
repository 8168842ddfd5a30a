package domain

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studyhall-ai/studyhall/internal/services/quiz"
)

// QuizGenerateInput represents the MCP tool input for generating a quiz.
type QuizGenerateInput struct {
	UserID        string `json:"user_id" jsonschema:"owner of the source note"`
	NoteID        string `json:"note_id" jsonschema:"note to build the quiz from"`
	QuestionCount int    `json:"question_count,omitempty" jsonschema:"number of questions, defaults to 5"`
}

// QuizQuestionView is one generated question without the answer key.
type QuizQuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizGenerateResult represents the MCP tool output for generating a quiz.
type QuizGenerateResult struct {
	QuizSetID string             `json:"quiz_set_id"`
	Topic     string             `json:"topic"`
	Questions []QuizQuestionView `json:"questions"`
}

// QuizGenerateTool defines the MCP tool schema for generating a quiz.
func QuizGenerateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "quiz_generate",
		Description: "Generates a multiple-choice quiz from a note",
	}
}

// QuizGenerateHandler adapts quiz generation to MCP. The answer key stays
// server-side so the quiz can be graded honestly later.
func QuizGenerateHandler(svc *quiz.Service) mcp.ToolHandlerFor[QuizGenerateInput, QuizGenerateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QuizGenerateInput) (*mcp.CallToolResult, QuizGenerateResult, error) {
		set, err := svc.Generate(ctx, input.UserID, input.NoteID, input.QuestionCount)
		if err != nil {
			return nil, QuizGenerateResult{}, err
		}
		result := QuizGenerateResult{
			QuizSetID: set.ID,
			Topic:     set.Topic,
			Questions: make([]QuizQuestionView, 0, len(set.Questions)),
		}
		for _, question := range set.Questions {
			result.Questions = append(result.Questions, QuizQuestionView{
				Question: question.Question,
				Options:  question.Options,
			})
		}
		return nil, result, nil
	}
}

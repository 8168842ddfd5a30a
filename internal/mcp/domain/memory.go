package domain

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studyhall-ai/studyhall/internal/services/memory"
)

const defaultDueLimit = 20

// DueReviewsInput represents the MCP tool input for listing due reviews.
type DueReviewsInput struct {
	UserID    string  `json:"user_id" jsonschema:"owner of the tracked concepts"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"retention threshold between 0 and 1, defaults to 0.5"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum results, defaults to 20"`
}

// DueReview is one concept whose predicted retention fell under the threshold.
type DueReview struct {
	ConceptID      string  `json:"concept_id"`
	Name           string  `json:"name"`
	Retention      float64 `json:"retention"`
	LastReviewedAt string  `json:"last_reviewed_at"`
}

// DueReviewsResult represents the MCP tool output for listing due reviews.
type DueReviewsResult struct {
	Reviews []DueReview `json:"reviews"`
}

// DueReviewsTool defines the MCP tool schema for listing due reviews.
func DueReviewsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "due_reviews",
		Description: "Lists concepts whose predicted retention fell below the threshold",
	}
}

// DueReviewsHandler adapts the memory decay model to MCP.
func DueReviewsHandler(svc *memory.Service) mcp.ToolHandlerFor[DueReviewsInput, DueReviewsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DueReviewsInput) (*mcp.CallToolResult, DueReviewsResult, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultDueLimit
		}
		due, err := svc.DueConcepts(ctx, input.UserID, input.Threshold, limit)
		if err != nil {
			return nil, DueReviewsResult{}, err
		}
		result := DueReviewsResult{Reviews: make([]DueReview, 0, len(due))}
		for _, status := range due {
			result.Reviews = append(result.Reviews, DueReview{
				ConceptID:      status.Concept.ID,
				Name:           status.Concept.Name,
				Retention:      status.Retention,
				LastReviewedAt: status.Concept.LastReviewedAt.UTC().Format(time.RFC3339),
			})
		}
		return nil, result, nil
	}
}

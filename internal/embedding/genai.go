package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/HendryAvila/devctx/internal/apperr"
)

// GenAI generates embeddings with Google's Gemini API.
type GenAI struct {
	client   *genai.Client
	model    string
	taskType string
}

// NewGenAI creates a Gemini embedding provider. The client is built once
// and shared by every request.
func NewGenAI(ctx context.Context, apiKey, model, taskType string) (*GenAI, error) {
	if apiKey == "" {
		return nil, apperr.Configuration([]string{"GEMINI_API_KEY"}, fmt.Errorf("GenAI API key is required"))
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if taskType == "" {
		taskType = TaskRetrievalQuery
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}

	return &GenAI{client: client, model: model, taskType: taskType}, nil
}

// Embed returns the embedding for text.
func (g *GenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := int32(Dimensions)
	result, err := g.client.Models.EmbedContent(ctx,
		g.model,
		genai.Text(text),
		&genai.EmbedContentConfig{
			TaskType:             g.taskType,
			OutputDimensionality: &dims,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// Name returns "genai:<model>".
func (g *GenAI) Name() string {
	return "genai:" + g.model
}

// Package gemini implements the language-model and embedder capabilities on
// top of the Google GenAI API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mazemind/mazemind/pkg/llm"
)

const (
	defaultChatModel      = "gemini-1.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
)

// Client adapts a genai client to the llm.LanguageModel and llm.Embedder
// interfaces.
type Client struct {
	client    *genai.Client
	chat      *genai.GenerativeModel
	embedding *genai.EmbeddingModel
}

// NewClient creates a client with the default chat and embedding models.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{
		client:    client,
		chat:      client.GenerativeModel(defaultChatModel),
		embedding: client.EmbeddingModel(defaultEmbeddingModel),
	}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error { return c.client.Close() }

// Available reports whether the client can serve requests.
func (c *Client) Available() bool { return c != nil && c.client != nil }

// Generate produces a single completion for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	model := c.chat
	if opts.Temperature > 0 {
		model.SetTemperature(float32(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if len(opts.Stop) > 0 {
		model.StopSequences = opts.Stop
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Embed generates an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.embedding.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini: embed: %w", err)
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds several texts in one round trip.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batch := c.embedding.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}
	resp, err := c.embedding.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini: embed batch: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: embed batch: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

var (
	_ llm.LanguageModel = (*Client)(nil)
	_ llm.Embedder      = (*Client)(nil)
)

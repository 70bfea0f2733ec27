// Package genai provides GenAI-backed operations using the OpenAI API.
//
// It wraps chat completions and embeddings behind a small interface so the
// flow package can be tested against a mock client.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// Default generation parameters for advising conversations.
const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.8
)

// ClientInterface is the surface the conversation router depends on.
type ClientInterface interface {
	// GeneratePrompt generates a response from a system prompt and a single
	// user prompt.
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// GenerateWithMessages generates a response from a system prompt plus a
	// full conversation history.
	GenerateWithMessages(ctx context.Context, systemPrompt string, history []models.Message) (string, error)

	// Embed returns the embedding vector for a text blob.
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Opts holds configuration for the GenAI client.
type Opts struct {
	APIKey         string
	ChatModel      openai.ChatModel
	EmbeddingModel openai.EmbeddingModel
}

// Option configures GenAI client construction.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding the environment.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithChatModel overrides the default chat completion model.
func WithChatModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.ChatModel = model }
}

// WithEmbeddingModel overrides the default embedding model.
func WithEmbeddingModel(model openai.EmbeddingModel) Option {
	return func(o *Opts) { o.EmbeddingModel = model }
}

// Client wraps the OpenAI API for completions and embeddings.
type Client struct {
	client         openai.Client
	chatModel      openai.ChatModel
	embeddingModel openai.EmbeddingModel
}

// NewClient initializes a GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.ChatModelGPT4o
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = openai.EmbeddingModelTextEmbeddingAda002
	}

	slog.Debug("genai.NewClient: client initialized", "chatModel", chatModel, "embeddingModel", embeddingModel)
	return &Client{
		client:         openai.NewClient(option.WithAPIKey(apiKey)),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}, nil
}

// GeneratePrompt generates a response based on the provided system and user prompts.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxTokens:   openai.Int(DefaultMaxTokens),
		Temperature: openai.Float(DefaultTemperature),
	})
	if err != nil {
		slog.Error("genai.GeneratePrompt: completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateWithMessages generates a response from a system prompt plus the
// conversation history in order.
func (c *Client) GenerateWithMessages(ctx context.Context, systemPrompt string, history []models.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, msg := range history {
		switch msg.Role {
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case models.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.chatModel,
		Messages:    messages,
		MaxTokens:   openai.Int(DefaultMaxTokens),
		Temperature: openai.Float(DefaultTemperature),
	})
	if err != nil {
		slog.Error("genai.GenerateWithMessages: completion failed", "error", err, "historyLength", len(history))
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns the embedding vector for a text blob.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: c.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		slog.Error("genai.Embed: embedding failed", "error", err)
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}
	return resp.Data[0].Embedding, nil
}

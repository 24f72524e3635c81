// Package llm wraps the Google GenAI client for chat and embedding use.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const embeddingModel = "text-embedding-004"

// Client wraps the GenAI client and tracks the active chat session.
type Client struct {
	client *genai.Client
	model  string
	chat   *genai.Chat
}

// NewClient creates a new LLM client against the Gemini API.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Embed generates an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Models.EmbedContent(ctx, embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embeddings[0].Values, nil
}

// StartChat opens a fresh chat session configured with the system
// instruction and tool declarations. Any previous session is discarded.
func (c *Client) StartChat(ctx context.Context, systemInstruction string, decls []*genai.FunctionDeclaration) error {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}
	if len(decls) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	chat, err := c.client.Chats.Create(ctx, c.model, config, nil)
	if err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}

	c.chat = chat
	return nil
}

// Send delivers parts to the active chat session.
func (c *Client) Send(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if c.chat == nil {
		return nil, fmt.Errorf("chat session not started")
	}
	resp, err := c.chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return resp, nil
}

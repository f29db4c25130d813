package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Turn is one prior exchange passed as chat history
type Turn struct {
	Role string `json:"role"`
	Text string `json:"message"`
}

// Embedder converts text to a vector. Satisfied by Client and test fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator produces a completion for a bare prompt (classification, tagging)
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Chatter produces a reply for a message plus conversation history
type Chatter interface {
	Chat(ctx context.Context, message string, history []Turn) (string, error)
}

// Client talks to the Cohere HTTP API
type Client struct {
	baseURL    string
	apiKey     string
	embedModel string
	chatModel  string
	client     *http.Client
}

// NewClient creates a Cohere client with bounded request timeouts
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    "https://api.cohere.ai/v1",
		apiKey:     apiKey,
		embedModel: "embed-english-v3.0",
		chatModel:  "command-r-plus",
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBaseURL overrides the API endpoint (tests, proxies)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetModels overrides the embedding and chat model names
func (c *Client) SetModels(embedModel, chatModel string) {
	if embedModel != "" {
		c.embedModel = embedModel
	}
	if chatModel != "" {
		c.chatModel = chatModel
	}
}

// embedRequest is the Cohere embed API request format
type embedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

// embedResponse is the Cohere embed API response format
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed generates an embedding for the given text
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	var result embedResponse
	err := c.post(ctx, "/embed", embedRequest{
		Texts:     []string{text},
		Model:     c.embedModel,
		InputType: "search_query",
	}, &result)
	if err != nil {
		return nil, err
	}

	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	return result.Embeddings[0], nil
}

// generateRequest is the Cohere generate API request format
type generateRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// generateResponse is the Cohere generate API response format
type generateResponse struct {
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
}

// Generate creates a text completion for a bare prompt
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}

	var result generateResponse
	err := c.post(ctx, "/generate", generateRequest{
		Prompt:      prompt,
		Model:       c.chatModel,
		MaxTokens:   50,
		Temperature: 0.3,
	}, &result)
	if err != nil {
		return "", err
	}

	if len(result.Generations) == 0 {
		return "", fmt.Errorf("empty generation returned")
	}
	return result.Generations[0].Text, nil
}

// chatRequest is the Cohere chat API request format
type chatRequest struct {
	Message     string  `json:"message"`
	Model       string  `json:"model"`
	ChatHistory []Turn  `json:"chat_history,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// chatResponse is the Cohere chat API response format
type chatResponse struct {
	Text string `json:"text"`
}

// Chat generates a reply for a message given prior conversation turns
func (c *Client) Chat(ctx context.Context, message string, history []Turn) (string, error) {
	if message == "" {
		return "", fmt.Errorf("empty message")
	}

	var result chatResponse
	err := c.post(ctx, "/chat", chatRequest{
		Message:     message,
		Model:       c.chatModel,
		ChatHistory: history,
		Temperature: 0.7,
		MaxTokens:   1000,
	}, &result)
	if err != nil {
		return "", err
	}

	if result.Text == "" {
		return "", fmt.Errorf("empty reply returned")
	}
	return result.Text, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("cohere request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cohere error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

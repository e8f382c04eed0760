package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultChatBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultGenerateBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	defaultChatModel     = "gpt-4o-mini"
	defaultGenerateModel = "gemini-2.0-flash-exp"

	defaultMaxTokens = 2000
)

// Provider sends one completion request and returns the raw response text.
// Implementations hold only per-call request/response data, so a Provider
// is safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Config selects and configures a provider. Values are read from CLI flags
// and environment once per invocation.
type Config struct {
	Provider  string // "chat" (default) or "generate"
	APIKey    string
	Model     string // provider default when empty
	BaseURL   string // provider default when empty; tests point this at a fake
	MaxTokens int    // response-size cap, default 2000
}

// NewProvider builds the configured provider. A missing credential fails
// fast with a ConfigurationError before any network call.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Missing: "LLM API key"}
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	client := &http.Client{Timeout: 30 * time.Second}

	switch cfg.Provider {
	case "", "chat":
		model := cfg.Model
		if model == "" {
			model = defaultChatModel
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultChatBaseURL
		}
		return &chatProvider{apiKey: cfg.APIKey, model: model, baseURL: baseURL, maxTokens: cfg.MaxTokens, client: client}, nil
	case "generate":
		model := cfg.Model
		if model == "" {
			model = defaultGenerateModel
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultGenerateBaseURL
		}
		return &generateProvider{apiKey: cfg.APIKey, model: model, baseURL: baseURL, maxTokens: cfg.MaxTokens, client: client}, nil
	default:
		return nil, fmt.Errorf("unknown completion provider: %q (valid: chat, generate)", cfg.Provider)
	}
}

// --- chat-completion style provider ---

// chatProvider speaks the OpenAI chat completions wire format: role-tagged
// messages, deterministic temperature 0.0, bearer credential.
type chatProvider struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *chatProvider) Name() string { return "chat" }

func (p *chatProvider) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.0,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ProviderError{Provider: "chat", Status: resp.StatusCode, Body: string(b)}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat provider returned no content")
	}
	return cr.Choices[0].Message.Content, nil
}

// --- single-prompt generation style provider ---

// generateProvider speaks the Gemini generateContent wire format: one
// concatenated prompt, credential in the query string.
type generateProvider struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

func (p *generateProvider) Name() string { return "generate" }

func (p *generateProvider) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: system + "\n\n" + user}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: p.maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ProviderError{Provider: "generate", Status: resp.StatusCode, Body: string(b)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generate provider returned no content")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

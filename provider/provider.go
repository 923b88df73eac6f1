package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New creates the completion provider. A missing API key is not an error:
// the returned model fails every call with ErrMissingCredential.
func New(log *slog.Logger, httpClient *http.Client, o Options) (llms.Model, error) {
	if o.APIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, chat requests will fail until it is configured")
		return Unconfigured{}, nil
	}
	opts := []openai.Option{
		openai.WithToken(o.APIKey),
		openai.WithModel(o.Model),
		openai.WithHTTPClient(httpClient),
	}
	if o.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(o.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return llm, nil
}

// Unconfigured is the model used when no credential is available.
type Unconfigured struct{}

func (Unconfigured) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return nil, ErrMissingCredential
}

func (Unconfigured) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", ErrMissingCredential
}

// Reply returns the text of the first choice.
func Reply(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Content, nil
}

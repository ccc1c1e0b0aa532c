package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	openai "github.com/sashabaranov/go-openai"
)

// NewOpenAI builds a client; baseURL may be empty for the public API.
func NewOpenAI(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAIClassifier asks a chat model for exactly one label out of Labels.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
	labels []string
}

func NewOpenAIClassifier(client *openai.Client, model string, labels []string) *OpenAIClassifier {
	return &OpenAIClassifier{client: client, model: model, labels: labels}
}

func (c *OpenAIClassifier) prompt() string {
	return fmt.Sprintf("You classify the emotion expressed in a sentence. "+
		"Answer with exactly one word from this list and nothing else: %s.",
		strings.Join(c.labels, ", "))
}

func (c *OpenAIClassifier) Classify(ctx context.Context, sentence string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.prompt()},
			{Role: openai.ChatMessageRoleUser, Content: sentence},
		},
		MaxTokens: 5,
		// zero is dropped by omitempty; the smallest float keeps sampling greedy
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return "", fmt.Errorf("openai classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai classify: empty response")
	}
	return c.match(resp.Choices[0].Message.Content)
}

func (c *OpenAIClassifier) match(reply string) (string, error) {
	got := strings.ToLower(strings.TrimFunc(reply, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))
	for _, l := range c.labels {
		if strings.EqualFold(got, l) {
			return l, nil
		}
	}
	return "", fmt.Errorf("openai classify: unexpected label %q", reply)
}

// OpenAITranscriber turns speech into text with Whisper.
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

func NewOpenAITranscriber(client *openai.Client, model string) *OpenAITranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{client: client, model: model}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, filename string, data []byte) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("transcription error: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

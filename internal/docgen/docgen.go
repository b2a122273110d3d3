package docgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mverot/dealdesk/internal/engine"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const systemPrompt = "You are a contracts assistant for a software sales team. Draft a short, plain-language order form for the deal described. Use markdown with a heading, a terms table, and a signature block. Do not invent terms that are not provided."

const defaultModel = "claude-sonnet-4-5"

// Messager is the slice of the Anthropic client the generator needs; tests
// substitute it.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client drafts contract documents. Output is HTML rendered from the model's
// markdown. Callers treat every error as advisory.
type Client struct {
	messages Messager
	model    string
	md       goldmark.Markdown
}

var _ engine.DocumentGenerator = (*Client)(nil)

// NewFromEnv builds a generator from ANTHROPIC_API_KEY and CONTRACT_LLM_MODEL.
// An empty key is a configuration, not an error state: callers get (nil, nil)
// and skip document generation.
func NewFromEnv() (*Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, nil
	}
	model := strings.TrimSpace(os.Getenv("CONTRACT_LLM_MODEL"))
	if model == "" {
		model = defaultModel
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return New(&c.Messages, model), nil
}

func New(messages Messager, model string) *Client {
	return &Client{
		messages: messages,
		model:    model,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (c *Client) Generate(ctx context.Context, in engine.ContractInput) (string, error) {
	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   2048,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt(in)))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", &engine.ExternalServiceError{Service: "document generator", Err: err}
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	markdown := strings.TrimSpace(sb.String())
	if markdown == "" {
		return "", &engine.ExternalServiceError{Service: "document generator", Err: errors.New("empty completion")}
	}
	var html bytes.Buffer
	if err := c.md.Convert([]byte(markdown), &html); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return html.String(), nil
}

func prompt(in engine.ContractInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Customer: %s\n", in.CustomerName)
	fmt.Fprintf(&sb, "Package: %s, %d seats\n", in.PackageName, in.Seats)
	if len(in.AddOnNames) > 0 {
		fmt.Fprintf(&sb, "Add-ons: %s\n", strings.Join(in.AddOnNames, ", "))
	}
	fmt.Fprintf(&sb, "Payment: %s", in.PaymentKind)
	if in.NetDays != nil {
		fmt.Fprintf(&sb, ", net %d days", *in.NetDays)
	}
	if in.PrepayPercent != nil {
		fmt.Fprintf(&sb, ", %.0f%% prepaid", *in.PrepayPercent)
	}
	fmt.Fprintf(&sb, "\nTotal: $%.2f\n", in.Total)
	return sb.String()
}

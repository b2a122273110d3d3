package docgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mverot/dealdesk/internal/engine"
	"github.com/mverot/dealdesk/internal/models"
)

type fakeMessager struct {
	markdown string
	err      error
	prompt   string
}

func (f *fakeMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	if len(params.Messages) > 0 {
		for _, block := range params.Messages[0].Content {
			if block.OfText != nil {
				f.prompt = block.OfText.Text
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: f.markdown}},
	}, nil
}

func netDays(n int) *int { return &n }

func TestGenerateRendersMarkdownToHTML(t *testing.T) {
	fake := &fakeMessager{markdown: "# Order Form\n\n| Term | Value |\n|---|---|\n| Seats | 50 |\n"}
	c := New(fake, "test-model")

	html, err := c.Generate(context.Background(), engine.ContractInput{
		CustomerName: "Initech",
		PackageName:  "Team",
		Seats:        50,
		PaymentKind:  models.PaymentNet,
		NetDays:      netDays(30),
		Total:        909.00,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "Order Form") {
		t.Errorf("heading not rendered: %q", html)
	}
	if !strings.Contains(html, "<table") {
		t.Errorf("GFM table not rendered: %q", html)
	}
	for _, want := range []string{"Initech", "Team, 50 seats", "net 30 days", "$909.00"} {
		if !strings.Contains(fake.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, fake.prompt)
		}
	}
}

func TestGenerateWrapsTransportFailure(t *testing.T) {
	c := New(&fakeMessager{err: errors.New("rate limited")}, "test-model")
	_, err := c.Generate(context.Background(), engine.ContractInput{CustomerName: "Initech"})
	var serr *engine.ExternalServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
}

func TestGenerateRejectsEmptyCompletion(t *testing.T) {
	c := New(&fakeMessager{markdown: "   "}, "test-model")
	_, err := c.Generate(context.Background(), engine.ContractInput{CustomerName: "Initech"})
	var serr *engine.ExternalServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
}

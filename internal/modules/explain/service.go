package explain

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	appcfg "github.com/decode-reader/core/internal/config"
	"go.uber.org/zap"
)

var errNoProvider = errors.New("no enabled AI provider is configured")

type Service struct {
	cfg appcfg.AIConfig
	log *zap.Logger

	// overridable for tests
	openStream   func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string) (<-chan Fragment, error)
	generateText func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string, maxTokens int) (string, error)
}

func NewService(cfg appcfg.AIConfig, log *zap.Logger) *Service {
	return &Service{
		cfg:          cfg,
		log:          log,
		openStream:   openStream,
		generateText: generateText,
	}
}

// HasProvider reports whether any enabled provider is configured.
func (s *Service) HasProvider() bool {
	return selectProvider(s.cfg, nil) != nil
}

// StreamExplanation opens a fragment stream for one explanation request.
// An error return means nothing was sent upstream-side; the caller can still
// respond with a plain JSON error.
func (s *Service) StreamExplanation(ctx context.Context, req ExplainRequest) (<-chan Fragment, error) {
	provider := selectProvider(s.cfg, s.cfg.ExplainModel)
	if provider == nil {
		return nil, errNoProvider
	}

	systemPrompt := buildSystemPrompt(req.Depth, req.KnownConcepts, req.Title, req.Context)
	var prompt string
	if req.Type == TypeHighlight {
		prompt = buildHighlightPrompt(req.Text, req.Context)
	} else {
		prompt = buildParagraphPrompt(req.Text)
	}

	s.log.Debug("opening explanation stream",
		zap.String("provider", provider.ID),
		zap.String("type", req.Type),
		zap.String("depth", req.Depth),
		zap.Int("text_len", len(req.Text)),
		zap.Int("context_len", len(req.Context)))

	return s.openStream(ctx, provider, systemPrompt, prompt)
}

// SuggestTitle asks the model for a short article title from pasted text.
// Returns "" when the model has nothing useful.
func (s *Service) SuggestTitle(ctx context.Context, text string) (string, error) {
	provider := selectProvider(s.cfg, s.cfg.TitleModel)
	if provider == nil {
		return "", errNoProvider
	}

	title, err := s.generateText(ctx, provider, "", buildTitlePrompt(text), 20)
	if err != nil {
		return "", err
	}
	title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), `"'`))
	if runes := []rune(title); len(runes) > 120 {
		title = string(runes[:120])
	}
	return title, nil
}

// TestConnection sends a trivial prompt to verify the provider responds.
func (s *Service) TestConnection(ctx context.Context) (bool, string, error) {
	provider := selectProvider(s.cfg, nil)
	if provider == nil {
		return false, "", errNoProvider
	}
	text, err := s.generateText(ctx, provider, "", "Reply with exactly: OK", 10)
	if err != nil {
		return false, "", err
	}
	text = strings.TrimSpace(text)
	return strings.Contains(strings.ToUpper(text), "OK"), text, nil
}

// ExtractedArticle is the model's read of a raw HTML page, used when the
// DOM heuristics find nothing usable.
type ExtractedArticle struct {
	Title      string
	Paragraphs []string
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractFromHTML asks the model to pull title and body paragraphs out of
// raw HTML.
func (s *Service) ExtractFromHTML(ctx context.Context, html, urlHint string) (*ExtractedArticle, error) {
	provider := selectProvider(s.cfg, s.cfg.ExtractModel)
	if provider == nil {
		return nil, errNoProvider
	}

	raw, err := s.generateText(ctx, provider, extractSystemPrompt, buildExtractPrompt(html, urlHint), 4096)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)

	candidate := raw
	if match := jsonObjectRe.FindString(raw); match != "" {
		candidate = match
	}

	var out struct {
		Title      string            `json:"title"`
		Paragraphs []json.RawMessage `json:"paragraphs"`
	}
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		fallback := raw
		if len(fallback) > 2000 {
			fallback = fallback[:2000]
		}
		if fallback == "" {
			fallback = "Could not extract article."
		}
		return &ExtractedArticle{Title: "Untitled", Paragraphs: []string{fallback}}, nil
	}

	title := strings.TrimSpace(out.Title)
	if title == "" {
		title = "Untitled"
	}

	paragraphs := make([]string, 0, len(out.Paragraphs))
	for _, item := range out.Paragraphs {
		var p string
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		if len(strings.TrimSpace(p)) < 10 {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	if len(paragraphs) == 0 {
		fallback := raw
		if len(fallback) > 500 {
			fallback = fallback[:500]
		}
		if fallback == "" {
			fallback = "No content extracted."
		}
		paragraphs = []string{fallback}
	}

	return &ExtractedArticle{Title: title, Paragraphs: paragraphs}, nil
}

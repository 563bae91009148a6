package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/decode-reader/core/internal/modules/explain"
	"go.uber.org/zap"
)

const (
	maxHTMLLength    = 500_000
	minParagraphLen  = 15
	fetchTimeout     = 15 * time.Second
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// AIFallback extracts an article via the model when DOM heuristics fail.
// Nil disables the fallback.
type AIFallback interface {
	ExtractFromHTML(ctx context.Context, html, urlHint string) (*explain.ExtractedArticle, error)
}

type Service struct {
	fallback AIFallback
	client   *http.Client
	log      *zap.Logger
}

func NewService(fallback AIFallback, log *zap.Logger) *Service {
	return &Service{
		fallback: fallback,
		client:   &http.Client{Timeout: fetchTimeout},
		log:      log,
	}
}

// FromURL fetches a page and extracts its article.
func (s *Service) FromURL(ctx context.Context, rawURL string) (*ExtractedDoc, error) {
	source := hostOf(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errFetchFailed
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errFetchFailed
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errFetchFailed
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLLength+1))
	if err != nil {
		return nil, errFetchFailed
	}
	html := string(body)
	if len(html) < 100 {
		return nil, errFetchFailed
	}
	if len(html) > maxHTMLLength {
		html = html[:maxHTMLLength]
	}

	if doc := s.extractWithHeuristics(html, source); doc != nil {
		return doc, nil
	}

	doc, err := s.extractWithAI(ctx, html, source)
	if err != nil {
		return nil, errFetchFailed
	}
	return doc, nil
}

// FromHTML extracts an article out of caller-supplied raw HTML.
func (s *Service) FromHTML(ctx context.Context, html, source string) (*ExtractedDoc, error) {
	if len(strings.TrimSpace(html)) < 50 {
		return nil, errNoValidHTML
	}
	if len(html) > maxHTMLLength {
		html = html[:maxHTMLLength]
	}
	if source == "" {
		source = "Pasted"
	}

	if doc := s.extractWithHeuristics(html, source); doc != nil {
		return doc, nil
	}

	doc, err := s.extractWithAI(ctx, html, source)
	if err != nil {
		return nil, errHTMLExtract
	}
	return doc, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// extractWithHeuristics pulls paragraphs out of the likeliest content
// container. Returns nil when the page has no usable article body.
func (s *Service) extractWithHeuristics(html, source string) *ExtractedDoc {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()

	container := doc.Find("article").First()
	if container.Length() == 0 {
		container = doc.Find("main").First()
	}
	if container.Length() == 0 {
		container = doc.Find("[role=main], #content, .post-content, .article-body, .entry-content").First()
	}
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}
	if container.Length() == 0 {
		return nil
	}

	var paragraphs []string
	container.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := collapseSpace(sel.Text())
		if len(text) >= minParagraphLen {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		full := strings.TrimSpace(container.Text())
		for _, part := range strings.Split(full, "\n\n") {
			text := collapseSpace(part)
			if len(text) >= minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	title := metaContent(doc, `meta[property="og:title"]`)
	if title == "" {
		title = collapseSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = collapseSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = "Untitled"
	}

	return &ExtractedDoc{
		Title:      title,
		Author:     metaContent(doc, `meta[name="author"]`),
		Date:       metaContent(doc, `meta[property="article:published_time"]`),
		Source:     source,
		Paragraphs: paragraphs,
		FullText:   strings.Join(paragraphs, "\n\n"),
	}
}

func (s *Service) extractWithAI(ctx context.Context, html, source string) (*ExtractedDoc, error) {
	if s.fallback == nil {
		return nil, fmt.Errorf("no AI fallback configured")
	}

	s.log.Debug("DOM extraction failed, falling back to AI", zap.String("source", source))
	out, err := s.fallback.ExtractFromHTML(ctx, html, source)
	if err != nil {
		return nil, err
	}
	return &ExtractedDoc{
		Title:      out.Title,
		Source:     source,
		Paragraphs: out.Paragraphs,
		FullText:   strings.Join(out.Paragraphs, "\n\n"),
	}, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return collapseSpace(content)
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func hostOf(rawURL string) string {
	parsed, err := neturl.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

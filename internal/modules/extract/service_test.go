package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/decode-reader/core/internal/modules/explain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const articlePage = `<!doctype html>
<html>
<head>
  <title>Ignored Head Title</title>
  <meta property="og:title" content="Quantum Tunneling, Explained">
  <meta name="author" content="J. Doe">
</head>
<body>
  <nav><p>Home | About | Long navigation paragraph that should vanish</p></nav>
  <article>
    <p>Quantum tunneling lets particles cross barriers they classically could not.</p>
    <p>short</p>
    <p>The effect underpins alpha decay and scanning tunneling microscopes.</p>
  </article>
  <footer><p>Copyright notice that also must not appear in the output text.</p></footer>
</body>
</html>`

type fakeFallback struct {
	out *explain.ExtractedArticle
	err error
}

func (f *fakeFallback) ExtractFromHTML(ctx context.Context, html, urlHint string) (*explain.ExtractedArticle, error) {
	return f.out, f.err
}

func TestHeuristicsExtractArticleParagraphs(t *testing.T) {
	svc := NewService(nil, zap.NewNop())

	doc := svc.extractWithHeuristics(articlePage, "example.org")
	require.NotNil(t, doc)

	assert.Equal(t, "Quantum Tunneling, Explained", doc.Title)
	assert.Equal(t, "J. Doe", doc.Author)
	assert.Equal(t, "example.org", doc.Source)
	require.Len(t, doc.Paragraphs, 2)
	assert.Contains(t, doc.Paragraphs[0], "cross barriers")
	assert.NotContains(t, doc.FullText, "navigation")
	assert.NotContains(t, doc.FullText, "Copyright")
}

func TestFromHTMLRejectsTinyInput(t *testing.T) {
	svc := NewService(nil, zap.NewNop())

	_, err := svc.FromHTML(context.Background(), "<p>x</p>", "")
	assert.ErrorIs(t, err, errNoValidHTML)
}

func TestFromHTMLFallsBackToAI(t *testing.T) {
	fallback := &fakeFallback{out: &explain.ExtractedArticle{
		Title:      "Recovered Title",
		Paragraphs: []string{"Recovered paragraph one.", "Recovered paragraph two."},
	}}
	svc := NewService(fallback, zap.NewNop())

	// div soup with no <p> long enough for the heuristics
	html := "<html><body>" + strings.Repeat("<div>x</div>", 20) + "</body></html>"
	doc, err := svc.FromHTML(context.Background(), html, "")
	require.NoError(t, err)
	assert.Equal(t, "Recovered Title", doc.Title)
	assert.Equal(t, "Pasted", doc.Source)
	assert.Len(t, doc.Paragraphs, 2)
}

func TestFromHTMLFallbackFailureIs422Error(t *testing.T) {
	svc := NewService(&fakeFallback{err: errors.New("provider down")}, zap.NewNop())

	html := "<html><body>" + strings.Repeat("<div>x</div>", 20) + "</body></html>"
	_, err := svc.FromHTML(context.Background(), html, "")
	assert.ErrorIs(t, err, errHTMLExtract)
}

func TestFromURLExtracts(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer upstream.Close()

	svc := NewService(nil, zap.NewNop())
	doc, err := svc.FromURL(context.Background(), upstream.URL+"/story")
	require.NoError(t, err)
	assert.Equal(t, "Quantum Tunneling, Explained", doc.Title)
	assert.Equal(t, "127.0.0.1", doc.Source)
}

func TestFromURLUpstreamErrorMapsToSafeMessage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusForbidden)
	}))
	defer upstream.Close()

	svc := NewService(nil, zap.NewNop())
	_, err := svc.FromURL(context.Background(), upstream.URL)
	assert.ErrorIs(t, err, errFetchFailed)
}

func TestExtractHandlerStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(nil, zap.NewNop()), zap.NewNop()).RegisterRoutes(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/article", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/article/extract", strings.NewReader(`{"source":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/article/extract", strings.NewReader(`{"html":"<div>too tiny</div>"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

package explain

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	appcfg "github.com/decode-reader/core/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(open func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string) (<-chan Fragment, error)) *Service {
	cfg := appcfg.AIConfig{
		Providers: []appcfg.AIProvider{{
			ID:      "test",
			Type:    "OpenAI-Compatible",
			APIKey:  "k",
			Enabled: true,
		}},
	}
	svc := NewService(cfg, zap.NewNop())
	svc.openStream = open
	return svc
}

func fragmentStream(frags ...Fragment) func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string) (<-chan Fragment, error) {
	return func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string) (<-chan Fragment, error) {
		out := make(chan Fragment, len(frags))
		for _, f := range frags {
			out <- f
		}
		close(out)
		return out, nil
	}
}

func newExplainRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc, zap.NewNop())
	h.RegisterRoutes(r.Group("/api"), func(c *gin.Context) { c.Next() })
	return r
}

func postExplain(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/explain", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sseDataLines(t *testing.T, body string) []string {
	t.Helper()
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			lines = append(lines, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestExplainRejectsShortText(t *testing.T) {
	r := newExplainRouter(newTestService(fragmentStream(Fragment{Text: "x"})))

	w := postExplain(t, r, `{"text":"ab"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Contains(t, out["error"], "text")
}

func TestExplainStreamsChunksAndDone(t *testing.T) {
	r := newExplainRouter(newTestService(fragmentStream(
		Fragment{Text: `{"explanation":`},
		Fragment{Text: `"Gravity bends light",`},
		Fragment{Text: `"concepts":["gravitational lensing"]}`},
	)))

	w := postExplain(t, r, `{"text":"Gravity bends light around massive objects."}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	lines := sseDataLines(t, w.Body.String())
	require.Len(t, lines, 4)
	assert.Equal(t, "[DONE]", lines[3])

	var rebuilt strings.Builder
	for _, line := range lines[:3] {
		var frame struct {
			Chunk string `json:"chunk"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &frame))
		rebuilt.WriteString(frame.Chunk)
	}
	assert.JSONEq(t, `{"explanation":"Gravity bends light","concepts":["gravitational lensing"]}`, rebuilt.String())
}

func TestExplainUpstreamFailureBeforeCommit(t *testing.T) {
	svc := newTestService(func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string) (<-chan Fragment, error) {
		return nil, errors.New("api key rejected")
	})
	r := newExplainRouter(svc)

	w := postExplain(t, r, `{"text":"long enough text"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Explanation failed", out["error"])
	assert.Equal(t, "api key rejected", out["detail"])
}

func TestExplainEmptyStreamBeforeCommit(t *testing.T) {
	r := newExplainRouter(newTestService(fragmentStream()))

	w := postExplain(t, r, `{"text":"long enough text"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Header().Get("Content-Type"), "text/event-stream")
}

func TestExplainImmediateErrorFragmentBeforeCommit(t *testing.T) {
	r := newExplainRouter(newTestService(fragmentStream(Fragment{Err: errors.New("rate limited")})))

	w := postExplain(t, r, `{"text":"long enough text"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestExplainMidStreamErrorBecomesTerminalFrame(t *testing.T) {
	r := newExplainRouter(newTestService(fragmentStream(
		Fragment{Text: "partial"},
		Fragment{Err: errors.New("connection reset")},
	)))

	w := postExplain(t, r, `{"text":"long enough text"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	lines := sseDataLines(t, w.Body.String())
	require.Len(t, lines, 2)

	var errFrame struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &errFrame))
	assert.Equal(t, "connection reset", errFrame.Error)
	assert.NotContains(t, w.Body.String(), "[DONE]")
}

func TestExplainCoercesWrongTypedFields(t *testing.T) {
	var gotSystem string
	svc := newTestService(func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string) (<-chan Fragment, error) {
		gotSystem = systemPrompt
		out := make(chan Fragment, 1)
		out <- Fragment{Text: "ok"}
		close(out)
		return out, nil
	})
	r := newExplainRouter(svc)

	w := postExplain(t, r, `{"text":"long enough text","type":42,"title":false,"depth":[],"knownConcepts":"nope"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, gotSystem, "ARTICLE TITLE: Article")
	assert.Contains(t, gotSystem, "no prior concept history")
}

func TestExplainKnownConceptsReachPrompt(t *testing.T) {
	var gotSystem string
	svc := newTestService(func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string) (<-chan Fragment, error) {
		gotSystem = systemPrompt
		out := make(chan Fragment, 1)
		out <- Fragment{Text: "ok"}
		close(out)
		return out, nil
	})
	r := newExplainRouter(svc)

	w := postExplain(t, r, `{"text":"long enough text","knownConcepts":["entropy","enthalpy"]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, gotSystem, "entropy, enthalpy")
}

func TestSuggestTitleShortTextReturnsNull(t *testing.T) {
	r := newExplainRouter(newTestService(fragmentStream()))

	req := httptest.NewRequest(http.MethodPost, "/api/suggest-title", strings.NewReader(`{"text":"too short"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"title":null}`, w.Body.String())
}

func TestSuggestTitleTrimsAndCaps(t *testing.T) {
	svc := newTestService(fragmentStream())
	svc.generateText = func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string, maxTokens int) (string, error) {
		return `  "The Shape of Spacetime"  `, nil
	}
	r := newExplainRouter(svc)

	body := `{"text":"` + strings.Repeat("gravity waves ripple through spacetime ", 3) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/suggest-title", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"title":"The Shape of Spacetime"}`, w.Body.String())
}

func TestSuggestTitleRejectsMalformedBody(t *testing.T) {
	r := newExplainRouter(newTestService(fragmentStream()))

	req := httptest.NewRequest(http.MethodPost, "/api/suggest-title", strings.NewReader(`{"text":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid JSON body."}`, w.Body.String())
}

func TestSuggestTitleTruncatesOnRuneBoundary(t *testing.T) {
	svc := newTestService(fragmentStream())
	svc.generateText = func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt, prompt string, maxTokens int) (string, error) {
		return strings.Repeat("é", 130), nil
	}

	title, err := svc.SuggestTitle(context.Background(), strings.Repeat("gravity waves ripple through spacetime ", 3))
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(title))
	assert.Equal(t, 120, utf8.RuneCountInString(title))
}

func TestStatusReportsProviderPresence(t *testing.T) {
	r := newExplainRouter(newTestService(fragmentStream()))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"ai_provider":true}`, w.Body.String())
}

func TestSelectProviderHonorsAssignment(t *testing.T) {
	cfg := appcfg.AIConfig{
		Providers: []appcfg.AIProvider{
			{ID: "a", Type: "OpenAI", APIKey: "k", DefaultModel: "m1", Enabled: true},
			{ID: "b", Type: "Anthropic", APIKey: "k", DefaultModel: "m2", Enabled: true},
		},
	}

	p := selectProvider(cfg, &appcfg.AIModelAssignment{ProviderID: "b", Model: "override"})
	require.NotNil(t, p)
	assert.Equal(t, "b", p.ID)
	assert.Equal(t, "override", p.DefaultModel)

	p = selectProvider(cfg, nil)
	require.NotNil(t, p)
	assert.Equal(t, "a", p.ID)

	cfg.Providers[0].Enabled = false
	cfg.Providers[1].Enabled = false
	assert.Nil(t, selectProvider(cfg, nil))
}

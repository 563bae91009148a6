package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, frames []string, status int, errBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/explain" {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(errBody))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			_, _ = w.Write([]byte("data: " + frame + "\n\n"))
			flusher.Flush()
		}
	}))
}

func collect(t *testing.T, frames <-chan Frame) []Frame {
	t.Helper()
	var out []Frame
	timeout := time.After(5 * time.Second)
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return out
			}
			out = append(out, f)
		case <-timeout:
			t.Fatal("timed out collecting frames")
		}
	}
}

func TestOpenExplainStreamSuccess(t *testing.T) {
	srv := sseServer(t, []string{
		`{"chunk":"{\"explanation\":\"x\","}`,
		`{"chunk":"\"concepts\":[]}"}`,
		"[DONE]",
	}, http.StatusOK, "")
	defer srv.Close()

	frames, err := New(srv.URL).OpenExplainStream(context.Background(), ExplainRequest{Text: "long enough"})
	require.NoError(t, err)

	got := collect(t, frames)
	require.Len(t, got, 3)
	assert.Equal(t, `{"explanation":"x",`, got[0].Chunk)
	assert.Equal(t, `"concepts":[]}`, got[1].Chunk)
	assert.True(t, got[2].Done)
}

func TestOpenExplainStreamSynchronousRejection(t *testing.T) {
	srv := sseServer(t, nil, http.StatusBadRequest, `{"error":"Missing or too short \"text\"."}`)
	defer srv.Close()

	_, err := New(srv.URL).OpenExplainStream(context.Background(), ExplainRequest{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestOpenExplainStreamTerminalErrorFrame(t *testing.T) {
	srv := sseServer(t, []string{
		`{"chunk":"partial"}`,
		`{"error":"rate limited"}`,
	}, http.StatusOK, "")
	defer srv.Close()

	frames, err := New(srv.URL).OpenExplainStream(context.Background(), ExplainRequest{Text: "long enough"})
	require.NoError(t, err)

	got := collect(t, frames)
	require.Len(t, got, 2)
	assert.Equal(t, "partial", got[0].Chunk)
	require.Error(t, got[1].Err)
	assert.Equal(t, "rate limited", got[1].Err.Error())
}

func TestAuthAndPersistenceRoundTrip(t *testing.T) {
	var sawAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"token": "tok123",
				"user":  map[string]string{"id": "u1", "email": "a@b.co"},
			})
		case "/api/articles":
			sawAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "art1"})
		case "/api/explanations":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "exp1"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	userID, err := c.Login(context.Background(), Credentials{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.True(t, c.HasToken())

	id, err := c.CreateArticle(context.Background(), "T", "full", []string{"full"})
	require.NoError(t, err)
	assert.Equal(t, "art1", id)
	assert.Equal(t, "Bearer tok123", sawAuth)

	err = c.SaveExplanation(context.Background(), SavedExplanation{
		ArticleID: id, Type: "paragraph", Depth: "standard", Explanation: "e", Concepts: []string{"c"},
	})
	assert.NoError(t, err)
}

func TestSuggestTitleNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":null}`))
	}))
	defer srv.Close()

	title, err := New(srv.URL).SuggestTitle(context.Background(), "short")
	require.NoError(t, err)
	assert.Empty(t, title)
}

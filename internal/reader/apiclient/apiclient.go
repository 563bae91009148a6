// Package apiclient is the reader's HTTP client for the decode server.
package apiclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

// Client talks to one decode server. The zero token means anonymous:
// streaming works, persistence endpoints will be rejected by the server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No overall timeout: explanation streams are long-lived and are
		// bounded by the request context instead.
		http: &http.Client{},
	}
}

// SetToken attaches a bearer token to subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// HasToken reports whether the client is authenticated.
func (c *Client) HasToken() bool { return c.token != "" }

// ExplainRequest mirrors the explain endpoint's JSON body.
type ExplainRequest struct {
	Type          string   `json:"type"`
	Text          string   `json:"text"`
	Context       string   `json:"context"`
	Title         string   `json:"title"`
	Depth         string   `json:"depth"`
	KnownConcepts []string `json:"knownConcepts"`
}

// Frame is one decoded server-sent event. Exactly one of Chunk, Err, Done
// is meaningful; Done and Err are both terminal.
type Frame struct {
	Chunk string
	Err   error
	Done  bool
}

// OpenExplainStream starts an explanation stream. A non-nil error means the
// server rejected the request synchronously and no stream was opened; the
// returned channel closes after a terminal frame or when ctx is cancelled.
func (c *Client) OpenExplainStream(ctx context.Context, req ExplainRequest) (<-chan Frame, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/explain", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.readError(resp)
	}

	out := make(chan Frame)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		emit := func(f Frame) bool {
			select {
			case out <- f:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				emit(Frame{Done: true})
				return
			}

			var event struct {
				Chunk string `json:"chunk"`
				Error string `json:"error"`
			}
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				continue
			}
			if event.Error != "" {
				emit(Frame{Err: errors.New(event.Error)})
				return
			}
			if !emit(Frame{Chunk: event.Chunk}) {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			emit(Frame{Err: err})
		}
	}()
	return out, nil
}

// Credentials is the register/login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	return c.authenticate(ctx, "/api/auth/login", creds)
}

// Register creates an account and stores the returned token on the client.
func (c *Client) Register(ctx context.Context, creds Credentials) (string, error) {
	return c.authenticate(ctx, "/api/auth/register", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds Credentials) (string, error) {
	var out authResponse
	if err := c.postJSON(ctx, path, creds, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.User.ID, nil
}

// Article is the server's article view.
type Article struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	FullText   string   `json:"fullText"`
	Paragraphs []string `json:"paragraphs"`
}

// CreateArticle persists a pasted article and returns its id.
func (c *Client) CreateArticle(ctx context.Context, title, fullText string, paragraphs []string) (string, error) {
	payload := map[string]interface{}{
		"title":      title,
		"fullText":   fullText,
		"paragraphs": paragraphs,
	}
	var out Article
	if err := c.postJSON(ctx, "/api/articles", payload, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// SavedExplanation is the payload for persisting one finalized result.
type SavedExplanation struct {
	ArticleID     string   `json:"articleId"`
	Type          string   `json:"type"`
	SelectionText string   `json:"selectionText,omitempty"`
	Depth         string   `json:"depth"`
	Explanation   string   `json:"explanation"`
	Concepts      []string `json:"concepts"`
}

// SaveExplanation persists a finalized result against an article.
func (c *Client) SaveExplanation(ctx context.Context, saved SavedExplanation) error {
	return c.postJSON(ctx, "/api/explanations", saved, nil)
}

// SuggestTitle asks the server for a short title. Empty string means the
// server had no suggestion.
func (c *Client) SuggestTitle(ctx context.Context, text string) (string, error) {
	var out struct {
		Title *string `json:"title"`
	}
	if err := c.postJSON(ctx, "/api/suggest-title", map[string]string{"text": text}, &out); err != nil {
		return "", err
	}
	if out.Title == nil {
		return "", nil
	}
	return *out.Title, nil
}

// ExtractFromURL asks the server to fetch and extract an article.
func (c *Client) ExtractFromURL(ctx context.Context, url string) (*Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/article?url="+neturl.QueryEscape(url), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.readError(resp)
	}

	var out Article
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return c.readError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return errors.New(payload.Detail)
		}
		if payload.Error != "" {
			return errors.New(payload.Error)
		}
	}
	return fmt.Errorf("request failed (%d)", resp.StatusCode)
}

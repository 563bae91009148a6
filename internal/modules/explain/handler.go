package explain

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, rateLimitMW gin.HandlerFunc) {
	rg.POST("/explain", rateLimitMW, h.streamExplanation)
	rg.POST("/suggest-title", h.suggestTitle)
	rg.GET("/status", h.status)
	rg.GET("/debug/ai", h.testConnection)
}

// POST /api/explain, SSE relay.
func (h *Handler) streamExplanation(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
		return
	}
	req := sanitizeExplainRequest(raw)

	if len(strings.TrimSpace(req.Text)) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Missing or too short "text".`})
		return
	}
	if req.Context == "" {
		req.Context = req.Text
	}

	ctx := c.Request.Context()
	fragments, err := h.svc.StreamExplanation(ctx, req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Explanation failed", "detail": err.Error()})
		return
	}

	// Pull the first fragment before committing the response so upstream
	// failures still get a plain JSON status.
	first, ok := <-fragments
	if !ok {
		c.JSON(http.StatusBadGateway, gin.H{"error": "model returned no content"})
		return
	}
	if first.Err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Explanation failed", "detail": first.Err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	writeChunk := func(text string) {
		payload, _ := json.Marshal(gin.H{"chunk": text})
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		c.Writer.Flush()
	}

	writeChunk(first.Text)
	for frag := range fragments {
		if ctx.Err() != nil {
			return
		}
		if frag.Err != nil {
			payload, _ := json.Marshal(gin.H{"error": frag.Err.Error()})
			fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
			c.Writer.Flush()
			return
		}
		writeChunk(frag.Text)
	}
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

// POST /api/suggest-title
func (h *Handler) suggestTitle(c *gin.Context) {
	var dto suggestTitleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
		return
	}
	if len(strings.TrimSpace(dto.Text)) < 20 {
		c.JSON(http.StatusOK, gin.H{"title": nil})
		return
	}

	title, err := h.svc.SuggestTitle(c.Request.Context(), dto.Text)
	if err != nil {
		h.log.Warn("title suggestion failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"title": nil})
		return
	}
	if title == "" {
		c.JSON(http.StatusOK, gin.H{"title": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": title})
}

// GET /api/status
func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"ai_provider": h.svc.HasProvider(),
	})
}

// GET /api/debug/ai
func (h *Handler) testConnection(c *gin.Context) {
	ok, text, err := h.svc.TestConnection(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": ok, "response": text})
}

package extract

import (
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/article")
	g.GET("", h.fromURL)
	g.POST("/extract", h.fromHTML)
}

// GET /api/article?url=...
func (h *Handler) fromURL(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url query parameter"})
		return
	}

	doc, err := h.svc.FromURL(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if len(doc.Paragraphs) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errEmptyArticle.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// POST /api/article/extract
func (h *Handler) fromHTML(c *gin.Context) {
	var dto extractHTMLDTO
	if err := c.ShouldBindJSON(&dto); err != nil || dto.HTML == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Missing "html" in request body.`})
		return
	}

	doc, err := h.svc.FromHTML(c.Request.Context(), dto.HTML, dto.Source)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if len(doc.Paragraphs) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errHTMLExtract.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

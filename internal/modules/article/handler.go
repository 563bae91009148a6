package article

import (
	"errors"
	"net/http"
	"strings"

	"github.com/decode-reader/core/internal/middleware"
	"github.com/decode-reader/core/internal/pkg/pagination"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/articles", authMW)
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.rename)
	g.DELETE("/:id", h.delete)

	rg.POST("/explanations", authMW, h.saveExplanation)
}

// POST /api/articles  [auth]
func (h *Handler) create(c *gin.Context) {
	var dto createArticleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, fullText, and paragraphs required"})
		return
	}
	if dto.Title == "" || dto.FullText == "" || dto.Paragraphs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, fullText, and paragraphs required"})
		return
	}

	m, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.log.Error("article create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save article"})
		return
	}
	c.JSON(http.StatusCreated, toArticleView(m))
}

// GET /api/articles  [auth]
func (h *Handler) list(c *gin.Context) {
	items, counts, pag, err := h.svc.List(middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		h.log.Error("article list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list articles"})
		return
	}

	out := make([]articleListItem, 0, len(items))
	for _, item := range items {
		out = append(out, articleListItem{
			ID:               item.ID,
			Title:            item.Title,
			CreatedAt:        item.CreatedAt,
			ExplanationCount: counts[item.ID],
		})
	}
	c.JSON(http.StatusOK, gin.H{"articles": out, "pagination": pag})
}

// GET /api/articles/:id  [auth]
func (h *Handler) get(c *gin.Context) {
	m, err := h.svc.Get(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.respondArticleErr(c, err)
		return
	}

	explanations, err := h.svc.Explanations(m.ID)
	if err != nil {
		h.log.Error("explanations load failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load article"})
		return
	}

	views := make([]explanationView, 0, len(explanations))
	for i := range explanations {
		views = append(views, toExplanationView(&explanations[i]))
	}

	view := toArticleView(m)
	c.JSON(http.StatusOK, gin.H{
		"id":           view.ID,
		"title":        view.Title,
		"fullText":     view.FullText,
		"paragraphs":   view.Paragraphs,
		"createdAt":    view.CreatedAt,
		"explanations": views,
	})
}

// PATCH /api/articles/:id  [auth]
func (h *Handler) rename(c *gin.Context) {
	var dto updateArticleDTO
	if err := c.ShouldBindJSON(&dto); err != nil || strings.TrimSpace(dto.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	m, err := h.svc.Rename(middleware.CurrentUserID(c), c.Param("id"), strings.TrimSpace(dto.Title))
	if err != nil {
		h.respondArticleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toArticleView(m))
}

// DELETE /api/articles/:id  [auth]
func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.respondArticleErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/explanations  [auth]
func (h *Handler) saveExplanation(c *gin.Context) {
	var dto saveExplanationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "articleId, type, depth, and explanation required"})
		return
	}
	if dto.ArticleID == "" || dto.Type == "" || dto.Depth == "" || dto.Explanation == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "articleId, type, depth, and explanation required"})
		return
	}

	m, err := h.svc.SaveExplanation(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.respondArticleErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": m.ID, "createdAt": m.CreatedAt})
}

func (h *Handler) respondArticleErr(c *gin.Context, err error) {
	if errors.Is(err, errArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.log.Error("article operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

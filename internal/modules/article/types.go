package article

import (
	"time"

	"github.com/decode-reader/core/internal/models"
)

type createArticleDTO struct {
	Title      string   `json:"title"`
	FullText   string   `json:"fullText"`
	Paragraphs []string `json:"paragraphs"`
}

type updateArticleDTO struct {
	Title string `json:"title"`
}

type saveExplanationDTO struct {
	ArticleID     string   `json:"articleId"`
	Type          string   `json:"type"`
	SelectionText string   `json:"selectionText"`
	Depth         string   `json:"depth"`
	Explanation   string   `json:"explanation"`
	Concepts      []string `json:"concepts"`
}

type articleListItem struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	CreatedAt        time.Time `json:"createdAt"`
	ExplanationCount int64     `json:"explanation_count"`
}

type articleView struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	FullText   string    `json:"fullText"`
	Paragraphs []string  `json:"paragraphs"`
	CreatedAt  time.Time `json:"createdAt"`
}

type explanationView struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	SelectionText string    `json:"selectionText,omitempty"`
	Depth         string    `json:"depth"`
	Explanation   string    `json:"explanation"`
	Concepts      []string  `json:"concepts"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toArticleView(m *models.ArticleModel) articleView {
	return articleView{
		ID:         m.ID,
		Title:      m.Title,
		FullText:   m.FullText,
		Paragraphs: append([]string{}, m.Paragraphs...),
		CreatedAt:  m.CreatedAt,
	}
}

func toExplanationView(m *models.ExplanationModel) explanationView {
	concepts := append([]string{}, m.Concepts...)
	return explanationView{
		ID:            m.ID,
		Type:          m.Type,
		SelectionText: m.SelectionText,
		Depth:         m.Depth,
		Explanation:   m.ExplanationText,
		Concepts:      concepts,
		CreatedAt:     m.CreatedAt,
	}
}

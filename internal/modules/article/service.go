package article

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/decode-reader/core/internal/models"
	"github.com/decode-reader/core/internal/pkg/pagination"
	"github.com/decode-reader/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errArticleNotFound = errors.New("Article not found")

// TitleSuggester produces a short title for pasted text. Nil when no AI
// provider is configured.
type TitleSuggester interface {
	SuggestTitle(ctx context.Context, text string) (string, error)
}

type Service struct {
	db        *gorm.DB
	suggester TitleSuggester
	log       *zap.Logger
}

func NewService(db *gorm.DB, suggester TitleSuggester, log *zap.Logger) *Service {
	return &Service{db: db, suggester: suggester, log: log}
}

func (s *Service) Create(userID string, dto *createArticleDTO) (*models.ArticleModel, error) {
	m := models.ArticleModel{
		UserID:     userID,
		Title:      dto.Title,
		FullText:   dto.FullText,
		Paragraphs: models.StringArray(dto.Paragraphs),
	}
	if err := s.db.Create(&m).Error; err != nil {
		return nil, err
	}

	if s.suggester != nil && isPlaceholderTitle(dto.Title) {
		go s.suggestTitleAsync(m.ID, m.FullText)
	}
	return &m, nil
}

// suggestTitleAsync renames a placeholder-titled article once the model
// comes back with something better. Last write wins; a user rename that
// lands later simply overwrites this.
func (s *Service) suggestTitleAsync(articleID, fullText string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	title, err := s.suggester.SuggestTitle(ctx, fullText)
	if err != nil {
		s.log.Debug("async title suggestion failed", zap.String("article_id", articleID), zap.Error(err))
		return
	}
	if strings.TrimSpace(title) == "" {
		return
	}
	if err := s.db.Model(&models.ArticleModel{}).Where("id = ?", articleID).Update("title", title).Error; err != nil {
		s.log.Warn("async title update failed", zap.String("article_id", articleID), zap.Error(err))
	}
}

func isPlaceholderTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	return t == "" || t == "untitled" || t == "untitled article" || t == "pasted article" || t == "article"
}

// List returns one page of the reader's articles, newest first, along with
// per-article explanation counts.
func (s *Service) List(userID string, q pagination.Query) ([]models.ArticleModel, map[string]int64, response.Pagination, error) {
	tx := s.db.Model(&models.ArticleModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	var items []models.ArticleModel
	pag, err := pagination.Paginate(tx, q, &items)
	if err != nil {
		return nil, nil, response.Pagination{}, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	counts, err := s.countExplanations(ids)
	if err != nil {
		return nil, nil, response.Pagination{}, err
	}
	return items, counts, pag, nil
}

func (s *Service) Get(userID, articleID string) (*models.ArticleModel, error) {
	var m models.ArticleModel
	err := s.db.Where("id = ? AND user_id = ?", articleID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) Explanations(articleID string) ([]models.ExplanationModel, error) {
	var items []models.ExplanationModel
	err := s.db.Where("article_id = ?", articleID).Order("created_at ASC").Find(&items).Error
	return items, err
}

func (s *Service) Rename(userID, articleID, title string) (*models.ArticleModel, error) {
	m, err := s.Get(userID, articleID)
	if err != nil {
		return nil, err
	}
	m.Title = title
	if err := s.db.Model(m).Update("title", title).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Delete(userID, articleID string) error {
	m, err := s.Get(userID, articleID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", articleID).Delete(&models.ExplanationModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(m).Error
	})
}

func (s *Service) SaveExplanation(userID string, dto *saveExplanationDTO) (*models.ExplanationModel, error) {
	if _, err := s.Get(userID, dto.ArticleID); err != nil {
		return nil, err
	}

	m := models.ExplanationModel{
		ArticleID:       dto.ArticleID,
		UserID:          userID,
		Type:            dto.Type,
		SelectionText:   dto.SelectionText,
		Depth:           dto.Depth,
		ExplanationText: dto.Explanation,
		Concepts:        models.StringArray(dto.Concepts),
	}
	if err := s.db.Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) countExplanations(articleIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(articleIDs))
	if len(articleIDs) == 0 {
		return out, nil
	}

	type row struct {
		ArticleID string
		N         int64
	}
	var rows []row
	err := s.db.Model(&models.ExplanationModel{}).
		Select("article_id, COUNT(*) as n").
		Where("article_id IN ?", articleIDs).
		Group("article_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ArticleID] = r.N
	}
	return out, nil
}

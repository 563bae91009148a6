package models

// ArticleModel is a saved article owned by one reader.
//
// Title is mutable: a newly pasted article is created with a placeholder and
// may be renamed once by the async title-suggestion step.
type ArticleModel struct {
	Base
	UserID       string             `json:"user_id"    gorm:"index;not null"`
	Title        string             `json:"title"      gorm:"not null"`
	FullText     string             `json:"full_text"  gorm:"type:longtext;not null"`
	Paragraphs   StringArray        `json:"paragraphs" gorm:"type:longtext"`
	Explanations []ExplanationModel `json:"explanations,omitempty" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
}

func (ArticleModel) TableName() string { return "articles" }

// Explanation kinds.
const (
	ExplanationTypeParagraph = "paragraph"
	ExplanationTypeHighlight = "highlight"
)

// ExplanationModel is a finalized explanation saved against an article.
// Error results are never persisted; rows here are always successful finals.
type ExplanationModel struct {
	Base
	ArticleID       string      `json:"article_id"       gorm:"index;not null"`
	UserID          string      `json:"-"                gorm:"index;not null"`
	Type            string      `json:"type"             gorm:"not null"` // paragraph | highlight
	SelectionText   string      `json:"selection_text,omitempty"`
	Depth           string      `json:"depth"            gorm:"not null"`
	ExplanationText string      `json:"explanation"      gorm:"type:longtext;not null"`
	Concepts        StringArray `json:"concepts"         gorm:"type:longtext"`
}

func (ExplanationModel) TableName() string { return "explanations" }

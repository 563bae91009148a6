package extract

import "errors"

// ExtractedDoc is the normalized result of pulling an article out of a page.
type ExtractedDoc struct {
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Date       string   `json:"date"`
	Source     string   `json:"source"`
	Paragraphs []string `json:"paragraphs"`
	FullText   string   `json:"fullText"`
}

type extractHTMLDTO struct {
	HTML   string `json:"html"`
	Source string `json:"source"`
}

var (
	errFetchFailed   = errors.New("Could not extract article. Try pasting the article text directly.")
	errNoValidHTML   = errors.New("No valid HTML content provided.")
	errHTMLExtract   = errors.New("Could not extract article from this HTML. Try pasting plain article text instead.")
	errEmptyArticle  = errors.New("Could not extract article content. Try pasting the article text directly.")
)

// Package selection turns what the reader picked (a paragraph, a run of
// paragraphs, or a highlighted span) into a well-formed explanation target.
package selection

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	KindParagraph = "paragraph"
	KindHighlight = "highlight"

	minHighlightLen = 3
)

var (
	ErrIndexOutOfRange = errors.New("paragraph index out of range")
	ErrEmptyRange      = errors.New("paragraph range is empty")
	ErrHighlightShort  = errors.New("highlighted text is too short")
	ErrNotInParagraph  = errors.New("highlighted text not found in paragraph")
)

// Article is the reader's current document.
type Article struct {
	Title      string
	Paragraphs []string
	FullText   string
}

// Target is one validated explain action. Key is unique for the lifetime of
// the Model so in-flight streams can never be confused with each other.
type Target struct {
	Key         string
	Kind        string
	SubjectText string
	ContextText string
	QuotedText  string
}

// Model validates selections and hands out non-reusable keys.
type Model struct {
	mu  sync.Mutex
	seq int
}

func NewModel() *Model { return &Model{} }

// Paragraph targets a single paragraph, with the full article as context.
func (m *Model) Paragraph(art Article, index int) (Target, error) {
	return m.ParagraphRange(art, index, index)
}

// ParagraphRange targets paragraphs [from, to] joined as one subject.
func (m *Model) ParagraphRange(art Article, from, to int) (Target, error) {
	if from > to {
		return Target{}, ErrEmptyRange
	}
	if from < 0 || to >= len(art.Paragraphs) {
		return Target{}, ErrIndexOutOfRange
	}

	subject := strings.Join(art.Paragraphs[from:to+1], "\n\n")
	return Target{
		Key:         m.nextKey(fmt.Sprintf("para-%d-%d", from, to)),
		Kind:        KindParagraph,
		SubjectText: subject,
		ContextText: art.contextText(),
	}, nil
}

// Highlight targets a quoted span inside one paragraph. The containing
// paragraph, not the whole article, is the model's grounding context.
func (m *Model) Highlight(art Article, paraIndex int, quoted string) (Target, error) {
	if paraIndex < 0 || paraIndex >= len(art.Paragraphs) {
		return Target{}, ErrIndexOutOfRange
	}

	quoted = strings.TrimSpace(quoted)
	if len(quoted) < minHighlightLen {
		return Target{}, ErrHighlightShort
	}

	paragraph := art.Paragraphs[paraIndex]
	if !strings.Contains(paragraph, quoted) {
		return Target{}, ErrNotInParagraph
	}

	return Target{
		Key:         m.nextKey(fmt.Sprintf("hl-%d", paraIndex)),
		Kind:        KindHighlight,
		SubjectText: quoted,
		ContextText: paragraph,
		QuotedText:  quoted,
	}, nil
}

func (m *Model) nextKey(prefix string) string {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()
	return fmt.Sprintf("%s#%d", prefix, seq)
}

func (a Article) contextText() string {
	if strings.TrimSpace(a.FullText) != "" {
		return a.FullText
	}
	return strings.Join(a.Paragraphs, "\n\n")
}

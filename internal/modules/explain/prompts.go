package explain

import (
	"fmt"
	"strings"
)

var depthInstructions = map[string]string{
	DepthELI5:      "Use analogies heavily. Assume smart high school student. Keep it under 100 words per paragraph explanation.",
	DepthStandard:  "Assume undergraduate level. Define technical terms but do not over-simplify. 100-200 words per paragraph.",
	DepthTechnical: "Assume graduate-level familiarity. Focus on methodology, significance, and implications. Can be longer if needed.",
}

func buildSystemPrompt(depth string, knownConcepts []string, title, fullText string) string {
	depthText, ok := depthInstructions[depth]
	if !ok {
		depth = DepthStandard
		depthText = depthInstructions[DepthStandard]
	}

	conceptsText := "The reader has no prior concept history."
	if len(knownConcepts) > 0 {
		conceptsText = "The reader has previously encountered these concepts (do not re-explain these from scratch, assume familiarity): " +
			strings.Join(knownConcepts, ", ")
	}

	return fmt.Sprintf(`You are an expert science communicator. Your job is to explain complex articles to a curious, intelligent reader. You are NOT a chatbot, you are an annotation engine. Your explanations should be:

1. Anchored to the specific text you're given. Don't generalize, explain THIS paragraph
2. Concise but complete. Cover everything the reader needs to understand the paragraph, nothing more
3. Jargon-aware. When a technical term appears, define it inline naturally (don't make a glossary, weave definitions into your explanation)
4. Connective. When relevant, briefly note how this paragraph connects to the broader argument of the article

The reader's depth preference is: %s
%s

%s

ARTICLE TITLE: %s
FULL ARTICLE CONTEXT: %s`, depth, depthText, conceptsText, title, fullText)
}

func buildParagraphPrompt(paragraphText string) string {
	return fmt.Sprintf(`Now explain ONLY this specific paragraph:
"%s"

Respond with a JSON object only, no other text:
{
  "explanation": "Your explanation text here...",
  "concepts": ["concept1", "concept2", "concept3"]
}

The "concepts" array should list 2-5 key technical or scientific terms from this paragraph that a non-expert might need to learn. Only include genuinely technical terms, not common words.`, paragraphText)
}

func buildHighlightPrompt(selectedText, surroundingParagraph string) string {
	return fmt.Sprintf(`The reader has highlighted this specific text and wants it explained:
"%s"

This text appears in the context of this paragraph:
"%s"

Give a brief, focused explanation of just the highlighted portion. Be concise, this is a quick clarification, not a full paragraph breakdown. Aim for 50-100 words.

Respond with a JSON object only, no other text:
{
  "explanation": "Your explanation text here...",
  "concepts": ["concept1"]
}`, selectedText, surroundingParagraph)
}

func buildTitlePrompt(text string) string {
	excerpt := text
	if len(excerpt) > 3000 {
		excerpt = excerpt[:3000]
	}
	return "Suggest a short, accurate title for this article (max 10 words). Reply with only the title, no quotes or punctuation.\n\n" + excerpt
}

const extractSystemPrompt = `You extract the main article content from HTML. Return ONLY a JSON object with no other text, no markdown, no code fence:
{
  "title": "Article title here",
  "paragraphs": ["First paragraph plain text.", "Second paragraph.", "..."]
}
- "title": the article or page title (string).
- "paragraphs": array of strings, each one a single paragraph of the article body. Strip all HTML, keep plain text only. Omit navigation, ads, and boilerplate. If the HTML has no article, return short placeholder title and one paragraph saying "No article content found."`

func buildExtractPrompt(html, urlHint string) string {
	const maxLen = 28000
	truncated := html
	if len(truncated) > maxLen {
		truncated = truncated[:maxLen] + "\n...[truncated]"
	}
	hint := ""
	if strings.TrimSpace(urlHint) != "" {
		hint = fmt.Sprintf(" (page: %s)", urlHint)
	}
	return fmt.Sprintf("Extract the main article from this HTML%s:\n\n%s", hint, truncated)
}

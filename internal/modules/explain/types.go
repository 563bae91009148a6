package explain

import (
	"encoding/json"
	"strings"
)

const (
	TypeParagraph = "paragraph"
	TypeHighlight = "highlight"

	DepthELI5      = "eli5"
	DepthStandard  = "standard"
	DepthTechnical = "technical"
)

// ExplainRequest is the sanitized payload for one streaming explanation.
type ExplainRequest struct {
	Type          string
	Text          string
	Context       string
	Title         string
	Depth         string
	KnownConcepts []string
}

type suggestTitleDTO struct {
	Text string `json:"text"`
}

// sanitizeExplainRequest coerces a raw JSON body into an ExplainRequest.
// Wrong-typed fields fall back to defaults instead of rejecting the request,
// so a sloppy client still gets an explanation.
func sanitizeExplainRequest(raw map[string]json.RawMessage) ExplainRequest {
	req := ExplainRequest{
		Type:          jsonString(raw["type"], TypeParagraph),
		Text:          jsonString(raw["text"], ""),
		Context:       jsonString(raw["context"], ""),
		Title:         jsonString(raw["title"], "Article"),
		Depth:         jsonString(raw["depth"], DepthStandard),
		KnownConcepts: jsonStringSlice(raw["knownConcepts"]),
	}
	if req.Type != TypeHighlight {
		req.Type = TypeParagraph
	}
	if strings.TrimSpace(req.Type) == "" {
		req.Type = TypeParagraph
	}
	if strings.TrimSpace(req.Title) == "" {
		req.Title = "Article"
	}
	if strings.TrimSpace(req.Depth) == "" {
		req.Depth = DepthStandard
	}
	return req
}

func jsonString(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fallback
	}
	return s
}

func jsonStringSlice(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

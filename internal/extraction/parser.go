package extraction

import (
	"encoding/json"
	"strings"

	"ai-receipt/internal/apperr"
)

type envelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text json.RawMessage `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ParseResponse pulls the extraction out of a raw generateContent response
// body. A JSON null payload yields a nil extraction and no error.
func ParseResponse(body string) (*Extraction, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Upstream("empty response", nil)
	}

	text, err := responseText(body)
	if err != nil {
		return nil, err
	}

	var ex *Extraction
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &ex); err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "failed to decode extraction", err)
	}
	return ex, nil
}

func responseText(body string) (string, error) {
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return "", apperr.Upstream("malformed response envelope", err)
	}
	if len(env.Candidates) == 0 || len(env.Candidates[0].Content.Parts) == 0 {
		return "", apperr.Upstream("no text in response", nil)
	}

	raw := env.Candidates[0].Content.Parts[0].Text
	if len(raw) == 0 || string(raw) == "null" {
		return "", apperr.Upstream("no text in response", nil)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		// non-string text node, use its literal form
		return string(raw), nil
	}
	return text, nil
}

// ExtractJSON returns the span from the first '{' to the last '}' of text,
// or the trimmed text when no such span exists.
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}

package cacheguard

import (
	"strings"
	"time"
)

// ContentType selects the validation heuristic applied to a payload.
type ContentType string

const (
	// ContentTypeGeneral is the fallback heuristic: reject empty
	// strings, sequences and mappings, accept everything else.
	ContentTypeGeneral ContentType = "general"

	// ContentTypeMarketAnalysis covers market trend and insight
	// payloads.
	ContentTypeMarketAnalysis ContentType = "market_analysis"

	// ContentTypeAIContent covers generated text and product content.
	ContentTypeAIContent ContentType = "ai_content"

	// ContentTypeImageAnalysis covers image analysis results.
	ContentTypeImageAnalysis ContentType = "image_analysis"
)

// Default TTLs per content type. Market data goes stale fast; generated
// content is expensive and stable; image analysis sits in between.
const (
	MarketAnalysisTTL = time.Hour
	AIContentTTL      = 24 * time.Hour
	ImageAnalysisTTL  = 2 * time.Hour
)

// Key prefixes per content type, shared with the cache key layout.
const (
	marketPrefix = "market:"
	aiPrefix     = "ai:"
	imagePrefix  = "image:"
)

// ContentTypeForKey recovers the content type from a cache key's
// prefix.
func ContentTypeForKey(key string) ContentType {
	switch {
	case strings.HasPrefix(key, marketPrefix):
		return ContentTypeMarketAnalysis
	case strings.HasPrefix(key, aiPrefix):
		return ContentTypeAIContent
	case strings.HasPrefix(key, imagePrefix):
		return ContentTypeImageAnalysis
	default:
		return ContentTypeGeneral
	}
}

// validators is the closed set of per-content-type heuristics. Adding a
// content type is one new entry here plus its constant above.
var validators = map[ContentType]func(any) bool{
	ContentTypeGeneral:        validGeneral,
	ContentTypeMarketAnalysis: validMarketAnalysis,
	ContentTypeAIContent:      validAIContent,
	ContentTypeImageAnalysis:  validImageAnalysis,
}

// IsValid classifies a decoded payload as worth caching. Pure, no I/O.
//
// Regardless of content type, a nil payload, an explicit error marker
// ("error" or "isError" field) or a {success: false, message} shape is
// invalid. Beyond that, each content type checks its own fixed list of
// meaningful-content fields; an unrecognized content type falls back to
// the general emptiness check.
func IsValid(payload any, contentType ContentType) bool {
	if payload == nil {
		return false
	}

	if m, ok := payload.(map[string]any); ok {
		if truthy(m["error"]) || truthy(m["isError"]) {
			return false
		}
		if success, ok := m["success"].(bool); ok && !success && truthy(m["message"]) {
			return false
		}
	}

	validate, ok := validators[contentType]
	if !ok {
		validate = validGeneral
	}
	return validate(payload)
}

func validGeneral(payload any) bool {
	switch v := payload.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return true
}

func validMarketAnalysis(payload any) bool {
	m, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	for _, field := range []string{"trends", "analysis", "insights"} {
		if meaningful(m[field], 10) {
			return true
		}
	}
	return false
}

func validAIContent(payload any) bool {
	m, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	for _, field := range []string{"description", "content", "text", "result", "response"} {
		if s, ok := m[field].(string); ok && len(strings.TrimSpace(s)) > 5 {
			return true
		}
	}
	// Product generation is a distinct acceptance path: structured
	// fields instead of a body text. Whitespace-only names do not count.
	for _, field := range []string{"productName", "marketingCopy"} {
		if s, ok := m[field].(string); ok && strings.TrimSpace(s) != "" {
			return true
		}
	}
	if images, ok := m["images"].([]any); ok && len(images) > 0 {
		return true
	}
	return false
}

func validImageAnalysis(payload any) bool {
	m, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	for _, field := range []string{"analysis", "results", "issues", "recommendations", "growthStage"} {
		if meaningful(m[field], 5) {
			return true
		}
	}
	return false
}

// meaningful reports whether v is a string longer than minLen after
// trimming, or a non-empty sequence or mapping.
func meaningful(v any, minLen int) bool {
	switch x := v.(type) {
	case string:
		return len(strings.TrimSpace(x)) > minLen
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return false
}

// truthy mirrors the loose presence checks of the upstream callers:
// nil, false, empty string and zero are absent, anything else counts.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	}
	return true
}

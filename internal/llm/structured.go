package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// fencePattern matches a fenced code block with an optional language tag.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON recovers a JSON document from raw model output.
//
// Models frequently wrap JSON in markdown fences or surround it with prose.
// Extraction tries, in order: the whole response, the first fenced code block,
// and the outermost brace/bracket slice. The first candidate that parses as
// JSON wins.
func ExtractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("response is empty")
	}

	for _, candidate := range jsonCandidates(trimmed) {
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}
	return nil, fmt.Errorf("response contains no valid JSON")
}

func jsonCandidates(text string) []string {
	candidates := []string{text}

	if match := fencePattern.FindStringSubmatch(text); match != nil {
		candidates = append(candidates, strings.TrimSpace(match[1]))
	}

	if slice := braceSlice(text, '{', '}'); slice != "" {
		candidates = append(candidates, slice)
	}
	if slice := braceSlice(text, '[', ']'); slice != "" {
		candidates = append(candidates, slice)
	}
	return candidates
}

// braceSlice returns the outermost open..close slice of text, or "" when the
// pair is absent or inverted.
func braceSlice(text string, open byte, close byte) string {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

// ValidateSchema checks document against a JSON-schema definition.
//
// A nil schema accepts any document. Validation failures list the first few
// offending fields so prompt authors can see what the model got wrong.
func ValidateSchema(schema map[string]any, document json.RawMessage) error {
	if schema == nil {
		return nil
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("validate against schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	descriptions := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		descriptions = append(descriptions, desc.String())
		if len(descriptions) == 3 {
			if remaining := len(result.Errors()) - 3; remaining > 0 {
				descriptions = append(descriptions, fmt.Sprintf("and %d more", remaining))
			}
			break
		}
	}
	return fmt.Errorf("response does not match schema: %s", strings.Join(descriptions, "; "))
}

// extractStructured runs fence extraction and schema validation on raw model
// output. All backends funnel structured responses through here so the
// contract is identical regardless of native JSON-mode support.
func extractStructured(text string, schema map[string]any) (json.RawMessage, error) {
	document, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	if err := ValidateSchema(schema, document); err != nil {
		return nil, err
	}
	return document, nil
}

// schemaInstruction renders a prompt suffix describing the required JSON
// shape for backends without native JSON modes.
func schemaInstruction(schema map[string]any) string {
	if schema == nil {
		return "Respond with a single JSON object and no surrounding prose."
	}
	encoded, err := json.Marshal(schema)
	if err != nil {
		return "Respond with a single JSON object and no surrounding prose."
	}
	return "Respond with a single JSON document matching this JSON schema, with no surrounding prose:\n" + string(encoded)
}

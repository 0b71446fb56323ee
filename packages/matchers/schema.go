package matchers

import (
	"encoding/json"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
)

type schemaMatcher struct {
	source string
	loader gojsonschema.JSONLoader
}

// MatchesSchema validates a value against an inline JSON Schema document.
func MatchesSchema(schema string) Matcher {
	return &schemaMatcher{source: "inline schema", loader: gojsonschema.NewStringLoader(schema)}
}

// MatchesSchemaFile validates a value against a JSON Schema file.
func MatchesSchemaFile(path string) Matcher {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &schemaMatcher{source: path, loader: gojsonschema.NewReferenceLoader("file://" + abs)}
}

func (m *schemaMatcher) Describe() string {
	return "a value matching " + m.source
}

func (m *schemaMatcher) Matches(actual any) (bool, error) {
	ok, _, err := m.Explain(actual)
	return ok, err
}

func (m *schemaMatcher) Explain(actual any) (bool, []string, error) {
	doc, err := json.Marshal(normalize(actual))
	if err != nil {
		return false, nil, usageErrorf(m, "value is not JSON encodable: %v", err)
	}

	result, err := gojsonschema.Validate(m.loader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return false, nil, usageErrorf(m, "schema validation error: %v", err)
	}
	if result.Valid() {
		return true, nil, nil
	}

	var reasons []string
	for _, e := range result.Errors() {
		reasons = append(reasons, e.String())
	}
	return false, reasons, nil
}

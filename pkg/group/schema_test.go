package group

import (
	"encoding/json"
	"testing"

	"github.com/praetorian-inc/autogroup/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDoc(t *testing.T, s string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestValidateDocument_Valid(t *testing.T) {
	doc := decodeDoc(t, `{
		"id": "0f8fad5b-d9cb-469f-a165-70867728950e",
		"title": "GitHub",
		"color": "blue",
		"options": {"strict": false, "merge": true, "priority": 3},
		"matchers": [{"pattern": "github.com", "isRegex": false}]
	}`)

	assert.Empty(t, ValidateDocument(0, doc))
}

func TestValidateDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{
			name: "missing options",
			doc:  `{"id": "x", "title": "t", "color": "blue", "matchers": []}`,
			path: "",
		},
		{
			name: "bad color",
			doc:  `{"id": "x", "title": "t", "color": "magenta", "options": {"strict": false, "merge": false}, "matchers": []}`,
			path: "color",
		},
		{
			name: "fractional priority",
			doc:  `{"id": "x", "title": "t", "color": "blue", "options": {"strict": false, "merge": false, "priority": 1.5}, "matchers": []}`,
			path: "options/priority",
		},
		{
			name: "matcher shape",
			doc:  `{"id": "x", "title": "t", "color": "blue", "options": {"strict": false, "merge": false}, "matchers": [{"pattern": 3, "isRegex": false}]}`,
			path: "matchers/0/pattern",
		},
		{
			name: "title type",
			doc:  `{"id": "x", "title": 7, "color": "blue", "options": {"strict": false, "merge": false}, "matchers": []}`,
			path: "title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateDocument(2, decodeDoc(t, tt.doc))
			require.NotEmpty(t, errs)
			assert.Equal(t, 2, errs[0].Index)
			assert.Equal(t, tt.path, errs[0].Path)
			assert.NotEmpty(t, errs[0].Message)
		})
	}
}

func TestSchemaColorsMatchPalette(t *testing.T) {
	for _, c := range types.Colors {
		doc := decodeDoc(t, `{"id": "x", "title": "t", "color": "`+string(c)+`", "options": {"strict": false, "merge": false}, "matchers": []}`)
		assert.Empty(t, ValidateDocument(0, doc), c)
	}
}

package scripture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSearchVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind SearchKind
		hits []Hit
	}{
		{
			name: "passages",
			body: `{"passages":[{"reference":"Romans 8:28","content":"And we know"}]}`,
			kind: KindPassages,
			hits: []Hit{{Reference: "Romans 8:28", Text: "And we know"}},
		},
		{
			name: "verses",
			body: `{"verses":[{"book_name":"John","chapter":3,"verse":16,"text":"For God so loved"}]}`,
			kind: KindVerses,
			hits: []Hit{{Reference: "John 3:16", Text: "For God so loved"}},
		},
		{
			name: "results",
			body: `{"total":1,"results":[{"reference":"Psalms 23:1","text":"The Lord is my shepherd"}]}`,
			kind: KindResults,
			hits: []Hit{{Reference: "Psalms 23:1", Text: "The Lord is my shepherd"}},
		},
		{
			name: "null variant falls through",
			body: `{"passages":null,"results":[]}`,
			kind: KindResults,
			hits: []Hit{},
		},
		{
			name: "unknown",
			body: `{"data":{"items":[]}}`,
			kind: KindUnknown,
			hits: []Hit{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DecodeSearch([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, result.Kind)
			assert.Equal(t, tt.hits, result.Hits())
		})
	}
}

func TestDecodeSearchKeepsRawForUnknown(t *testing.T) {
	body := `{"data":{"items":[1,2]}}`
	result, err := DecodeSearch([]byte(body))
	require.NoError(t, err)
	assert.JSONEq(t, body, string(result.Raw))
}

func TestDecodeSearchErrors(t *testing.T) {
	_, err := DecodeSearch([]byte(`[1,2,3]`))
	assert.Error(t, err)

	_, err = DecodeSearch([]byte(`{"verses":"not a list"}`))
	assert.Error(t, err)
}

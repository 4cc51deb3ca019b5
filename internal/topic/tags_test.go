package topic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagListAcceptsStringOrArray(t *testing.T) {
	tests := []struct {
		name string
		body string
		want TagList
	}{
		{"comma separated", `{"tags":"prayer, healing"}`, TagList{"prayer", "healing"}},
		{"array", `{"tags":[" prayer ","healing","prayer"]}`, TagList{"prayer", "healing"}},
		{"empty string", `{"tags":""}`, TagList{}},
		{"blank entries", `{"tags":" , ,hope,"}`, TagList{"hope"}},
		{"missing", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateTopicRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Tags)
		})
	}
}

func TestTagListRejectsOtherShapes(t *testing.T) {
	var req CreateTopicRequest
	assert.Error(t, json.Unmarshal([]byte(`{"tags":{"a":1}}`), &req))
}

func TestCategories(t *testing.T) {
	assert.True(t, IsValidCategory("Bible Study"))
	assert.False(t, IsValidCategory("bible study"))
}

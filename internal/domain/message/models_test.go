package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Message
	}{
		{"string id", `{"id":"1","text":"hi"}`, Message{ID: "1", Text: "hi"}},
		{"numeric id", `{"id":1,"text":"hi"}`, Message{ID: "1", Text: "hi"}},
		{"large numeric id", `{"id":9007199254740993,"text":"x"}`, Message{ID: "9007199254740993", Text: "x"}},
		{"null id", `{"id":null,"text":"hi"}`, Message{Text: "hi"}},
		{"missing id", `{"text":"hi"}`, Message{Text: "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Message
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessage_UnmarshalJSON_InvalidID(t *testing.T) {
	for _, body := range []string{`{"id":true,"text":"hi"}`, `{"id":{"n":1},"text":"hi"}`} {
		var got Message
		assert.Error(t, json.Unmarshal([]byte(body), &got), body)
	}
}

func TestMessage_UnmarshalJSON_List(t *testing.T) {
	var got []Message
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1,"text":"hi"},{"id":"b","text":"yo"}]`), &got))
	assert.Equal(t, []Message{{ID: "1", Text: "hi"}, {ID: "b", Text: "yo"}}, got)
}

package response

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFencedRecord(t *testing.T) {
	raw := "Aqui está:\n```json\n" +
		`{"input":"ele pegou a bola azul e foi pra caza","correction":"ele pegou a bola azul e foi para casa","words":["caza"],"labels":["substitution"]}` +
		"\n```\n"

	// prose outside the fence is not valid JSON
	assert.Equal(t, KindMalformed, Parse(raw).Kind)

	raw = "```json\n" +
		`{"input":"ele pegou a bola azul e foi pra caza","correction":"ele pegou a bola azul e foi para casa","words":["caza"],"labels":["substitution"]}` +
		"\n```"
	got := Parse(raw)
	require.Equal(t, KindRecord, got.Kind)

	want := &Record{
		Input:      "ele pegou a bola azul e foi pra caza",
		Correction: "ele pegou a bola azul e foi para casa",
		Words:      []string{"caza"},
		Labels:     []Label{LabelSubstitution},
	}
	if diff := cmp.Diff(want, got.Record); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, got.Record, got.Payload())
}

func TestParseBareRecord(t *testing.T) {
	got := Parse(`  {"input":"o pado","correction":"o pato","words":["pado"],"labels":["substitution"]}  `)
	require.Equal(t, KindRecord, got.Kind)
	assert.Equal(t, []string{"pado"}, got.Record.Words)
}

func TestParseKeepsUncheckedFields(t *testing.T) {
	// labels shorter than words and outside the known categories pass through
	got := Parse("```" + `{"words":["caza","pra"],"labels":["Substituição"]}` + "```")
	require.Equal(t, KindRecord, got.Kind)
	assert.Equal(t, []Label{"Substituição"}, got.Record.Labels)
	assert.Len(t, got.Record.Words, 2)
}

func TestParseEmpty(t *testing.T) {
	for _, raw := range []string{"", "   \n\t"} {
		got := Parse(raw)
		assert.Equal(t, KindEmpty, got.Kind, "raw=%q", raw)
		assert.Nil(t, got.Record)
		assert.Equal(t, map[string]string{"error": ErrorEmpty}, got.Payload())
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{
		"não encontrei erros",
		"```json\n{\"words\": [\"caza\"\n```",
		`["caza"]`,
		`{"words": "caza"}`,
		"```",
	} {
		got := Parse(raw)
		assert.Equal(t, KindMalformed, got.Kind, "raw=%q", raw)
		assert.Equal(t, map[string]string{"error": ErrorMalformed}, got.Payload())
	}
}

func TestParseNoFinding(t *testing.T) {
	for _, raw := range []string{
		"{}",
		"```json\n{}\n```",
		`{"input":"a casa","correction":"a casa","words":[],"labels":[]}`,
		`{"input":"a casa","words":null}`,
	} {
		got := Parse(raw)
		assert.Equal(t, KindNoFinding, got.Kind, "raw=%q", raw)
		assert.Equal(t, map[string]string{"message": MessageNoFinding}, got.Payload())
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{}\n```":  "{}",
		"```\n{}\n```":      "{}",
		"  {}  ":            "{}",
		"``````":            "",
		"`````json`":        "``json`",
		"a ```json b ``` c": "a  b  c",
		"```jsonjson":       "json",
		"sem cercas":        "sem cercas",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripFences(in), "in=%q", in)
	}
}

func TestStripFencesIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"```json\n{\"words\":[\"caza\"]}\n```",
		"````json``",
		"``` ```json ```",
		"`````json`",
		"\n```js```on```\n",
		"``json```json`",
	}
	for _, in := range inputs {
		once := StripFences(in)
		assert.Equal(t, once, StripFences(once), "in=%q", in)
	}
}

func TestPayloadJSON(t *testing.T) {
	data, err := json.Marshal(Parse("{}").Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"`+MessageNoFinding+`"}`, string(data))
}

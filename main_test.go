package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcpsimmons/teachat/pkg/response"
)

func TestPrintPayload(t *testing.T) {
	record := &response.Record{
		Input:      "foi pra caza",
		Correction: "foi para casa",
		Words:      []string{"caza"},
		Labels:     []response.Label{response.LabelSubstitution},
	}

	var buf bytes.Buffer
	require.NoError(t, printPayload(&buf, "json", record))
	assert.JSONEq(t, `{"input":"foi pra caza","correction":"foi para casa","words":["caza"],"labels":["substitution"]}`, buf.String())

	buf.Reset()
	require.NoError(t, printPayload(&buf, "yaml", record))
	assert.Equal(t, "input: foi pra caza\ncorrection: foi para casa\nwords:\n  - caza\nlabels:\n  - substitution\n", buf.String())

	buf.Reset()
	require.NoError(t, printPayload(&buf, "yaml", response.Outcome{Kind: response.KindNoFinding}.Payload()))
	assert.Equal(t, "message: "+response.MessageNoFinding+"\n", buf.String())
}

func TestProgressCreatesBarOnce(t *testing.T) {
	p := newProgress()
	p.update(1, 3)
	first := p.bar
	require.NotNil(t, first)

	p.update(3, 3)
	assert.Same(t, first, p.bar)
}

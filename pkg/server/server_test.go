package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcpsimmons/teachat/pkg/chat"
	"github.com/jcpsimmons/teachat/pkg/response"
)

type rawClassifier string

func (c rawClassifier) Run(context.Context, string) (response.Outcome, error) {
	return response.Parse(string(c)), nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestIndex(t *testing.T) {
	h := New(chat.NewManager(rawClassifier("{}"))).Handler()

	rec, _ := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>"+Title+"</title>")
	assert.Contains(t, rec.Body.String(), Placeholder)

	rec, _ = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatRecordAndTranscript(t *testing.T) {
	raw := "```json\n" + `{"input":"ele pegou a bola azul e foi pra caza","correction":"ele pegou a bola azul e foi para casa","words":["caza"],"labels":["substitution"]}` + "\n```"
	h := New(chat.NewManager(rawClassifier(raw))).Handler()

	rec, env := do(t, h, http.MethodPost, "/api/chat", `{"message":"ele pegou a bola azul e foi pra caza"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var got struct {
		SessionID string `json:"session_id"`
		Turn      struct {
			Role    string          `json:"role"`
			Kind    string          `json:"kind"`
			Content json.RawMessage `json:"content"`
		} `json:"turn"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.NotEmpty(t, got.SessionID)
	assert.Equal(t, "assistant", got.Turn.Role)
	assert.Equal(t, "record", got.Turn.Kind)
	assert.JSONEq(t, `{"input":"ele pegou a bola azul e foi pra caza","correction":"ele pegou a bola azul e foi para casa","words":["caza"],"labels":["substitution"]}`, string(got.Turn.Content))

	rec, env = do(t, h, http.MethodPost, "/api/chat", `{"session_id":"`+got.SessionID+`","message":"outra"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/transcript?session_id="+got.SessionID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var transcript TranscriptResponse
	require.NoError(t, json.Unmarshal(env.Data, &transcript))
	assert.Equal(t, got.SessionID, transcript.SessionID)
	require.Len(t, transcript.Turns, 4)
	assert.Equal(t, chat.RoleUser, transcript.Turns[2].Role)
	assert.Equal(t, "outra", transcript.Turns[2].Content)
}

func TestChatNoFinding(t *testing.T) {
	h := New(chat.NewManager(rawClassifier("{}"))).Handler()

	_, env := do(t, h, http.MethodPost, "/api/chat", `{"message":"a casa"}`)
	require.True(t, env.Success)

	var got ChatResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, map[string]interface{}{"message": response.MessageNoFinding}, got.Turn.Content)
}

func TestChatBadRequests(t *testing.T) {
	h := New(chat.NewManager(rawClassifier("{}"))).Handler()

	rec, env := do(t, h, http.MethodPost, "/api/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, env = do(t, h, http.MethodPost, "/api/chat", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "Invalid request body")

	rec, _ = do(t, h, http.MethodGet, "/api/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = do(t, h, http.MethodOptions, "/api/chat", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTranscriptUnknownSession(t *testing.T) {
	h := New(chat.NewManager(rawClassifier("{}"))).Handler()

	rec, env := do(t, h, http.MethodGet, "/api/transcript?session_id=missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Unknown session", env.Error)
}

func TestHealth(t *testing.T) {
	h := New(chat.NewManager(rawClassifier("{}"))).Handler()

	rec, env := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

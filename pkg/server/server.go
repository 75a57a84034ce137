// Package server exposes the chat widget and its JSON API over HTTP.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jcpsimmons/teachat/pkg/chat"
)

const (
	Title       = "TEAChat - Dislalia Assistant"
	Placeholder = "Insira a frase a ser corrigida:"

	maxBodyBytes = 64 << 10
)

//go:embed templates/index.html
var templates embed.FS

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string    `json:"session_id"`
	Turn      chat.Turn `json:"turn"`
}

type TranscriptResponse struct {
	SessionID string      `json:"session_id"`
	Turns     []chat.Turn `json:"turns"`
}

type Server struct {
	sessions *chat.Manager
	page     *template.Template
}

func New(sessions *chat.Manager) *Server {
	return &Server{
		sessions: sessions,
		page:     template.Must(template.ParseFS(templates, "templates/index.html")),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/chat", enableCORS(s.handleChat))
	mux.HandleFunc("/api/transcript", enableCORS(s.handleTranscript))
	mux.HandleFunc("/api/health", enableCORS(s.handleHealth))
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	zap.S().Infof("Starting chat server on port %d", port)
	zap.S().Info("Endpoints:")
	zap.S().Info("  GET  / - Chat widget")
	zap.S().Info("  POST /api/chat - Submit a sentence for classification")
	zap.S().Info("  GET  /api/transcript?session_id= - Session transcript")
	zap.S().Info("  GET  /api/health - Liveness check")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, map[string]string{"Title": Title, "Placeholder": Placeholder}); err != nil {
		zap.L().Error("Failed to render page", zap.Error(err))
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	session := s.sessions.GetOrCreate(req.SessionID)
	turn, err := session.Submit(r.Context(), req.Message)
	if errors.Is(err, chat.ErrEmptyInput) {
		respondWithError(w, "Message must not be empty", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondWithError(w, fmt.Sprintf("Failed to process message: %v", err), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, ChatResponse{SessionID: session.ID(), Turn: turn})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("session_id")
	session, ok := s.sessions.Get(id)
	if !ok {
		respondWithError(w, "Unknown session", http.StatusNotFound)
		return
	}

	respondWithJSON(w, TranscriptResponse{SessionID: id, Turns: session.Transcript()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondWithJSON(w, map[string]string{"status": "ok"})
}

func enableCORS(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}

func respondWithJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	response := APIResponse{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(w).Encode(response)
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := APIResponse{
		Success: false,
		Error:   message,
	}
	json.NewEncoder(w).Encode(response)
}

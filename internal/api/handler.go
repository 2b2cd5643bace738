// Package api exposes the chat orchestration and thin store pass-throughs
// over HTTP with JSON bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cyberai/server/internal/llm"
	"github.com/cyberai/server/internal/models"
	"github.com/cyberai/server/internal/store"
)

const serviceName = "Cyber AI"

// Generator is the slice of the llm service the handlers need.
type Generator interface {
	GenerateChatResponse(ctx context.Context, message string, history []models.Message) (string, error)
	GenerateConversationTitle(ctx context.Context, firstMessage string) string
}

type Handler struct {
	store     store.Store
	llm       Generator
	logger    *zap.Logger
	jwtSecret []byte
}

func NewHandler(st store.Store, generator Generator, logger *zap.Logger, jwtSecret string) *Handler {
	return &Handler{
		store:     st,
		llm:       generator,
		logger:    logger,
		jwtSecret: []byte(jwtSecret),
	}
}

// Routes wires every API endpoint onto a fresh mux. Static assets and
// middleware are the caller's concern.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", h.HandleChat)
	mux.HandleFunc("GET /api/conversations", h.GetConversations)
	mux.HandleFunc("GET /api/conversations/{id}/messages", h.GetMessages)
	mux.HandleFunc("DELETE /api/conversations/{id}", h.DeleteConversation)
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/health", h.Health)
	return mux
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleChat runs one chat turn: validate, load history, generate, then
// persist both sides of the exchange. Nothing is written if generation fails.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	conversationID := req.ConversationID

	// An unknown conversation id simply means empty history. A conversation
	// deleted mid-flight still gets the new pair written under its old id;
	// the store does not guard that race.
	var history []models.Message
	if conversationID != "" {
		var err error
		history, err = h.store.GetMessagesByConversation(conversationID)
		if err != nil {
			h.logger.Error("failed to load history",
				zap.Error(err),
				zap.String("conversation_id", conversationID))
			h.writeError(w, http.StatusInternalServerError, "Failed to load conversation history")
			return
		}
	}

	response, err := h.llm.GenerateChatResponse(r.Context(), req.Message, history)
	if err != nil {
		h.logger.Error("chat generation failed",
			zap.Error(err),
			zap.String("conversation_id", conversationID))
		status, msg := generationErrorResponse(err)
		h.writeError(w, status, msg)
		return
	}

	if conversationID == "" {
		title := h.llm.GenerateConversationTitle(r.Context(), req.Message)
		conv, err := h.store.CreateConversation(title)
		if err != nil {
			h.logger.Error("failed to create conversation", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "Failed to create conversation")
			return
		}
		conversationID = conv.ID
	}

	if _, err := h.store.CreateMessage(conversationID, models.RoleUser, req.Message); err != nil {
		h.logger.Error("failed to save user message", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}
	if _, err := h.store.CreateMessage(conversationID, models.RoleAssistant, response); err != nil {
		h.logger.Error("failed to save assistant message", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}

	h.writeJSON(w, http.StatusOK, chatResponse{
		Response:       response,
		ConversationID: conversationID,
	})
}

// generationErrorResponse maps generator failures onto the wire contract.
// Provider and configuration problems are reported as 400 with their
// user-facing message; anything unrecognized is a 500.
func generationErrorResponse(err error) (int, string) {
	var provErr *llm.ProviderError
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &provErr):
		return http.StatusBadRequest, provErr.Message
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.store.GetAllConversations()
	if err != nil {
		h.logger.Error("failed to get conversations", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch conversations")
		return
	}
	h.writeJSON(w, http.StatusOK, conversations)
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")

	messages, err := h.store.GetMessagesByConversation(conversationID)
	if err != nil {
		h.logger.Error("failed to get messages",
			zap.Error(err),
			zap.String("conversation_id", conversationID))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	h.writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")

	if err := h.store.DeleteConversation(conversationID); err != nil {
		h.logger.Error("failed to delete conversation",
			zap.Error(err),
			zap.String("conversation_id", conversationID))
		h.writeError(w, http.StatusInternalServerError, "Failed to delete conversation")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

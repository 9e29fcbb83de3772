package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/store"
)

// ChatsHandler manages chat sessions and their message logs.
type ChatsHandler struct {
	store *store.Store
}

func NewChatsHandler(st *store.Store) *ChatsHandler {
	return &ChatsHandler{store: st}
}

// Create handles POST /api/v1/chats
func (h *ChatsHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.CreateChat(r.Context())
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "failed to create chat: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusCreated, session)
}

// List handles GET /api/v1/chats
func (h *ChatsHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListChats(r.Context())
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "failed to list chats: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"chats":  sessions,
		"count":  len(sessions),
	})
}

// Rename handles POST /api/v1/chats/{chat_id}/rename
func (h *ChatsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")

	var req models.RenameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Title == "" {
		models.WriteError(w, http.StatusBadRequest, "title is required")
		return
	}

	if err := h.store.RenameChat(r.Context(), chatID, req.Title); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			models.WriteError(w, http.StatusNotFound, "chat not found")
			return
		}
		models.WriteError(w, http.StatusInternalServerError, "failed to rename chat: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"id":     chatID,
		"title":  req.Title,
	})
}

// Messages handles GET /api/v1/chats/{chat_id}/messages
func (h *ChatsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")

	messages, err := h.store.ListMessages(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			models.WriteError(w, http.StatusNotFound, "chat not found")
			return
		}
		models.WriteError(w, http.StatusInternalServerError, "failed to list messages: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"messages": messages,
		"count":    len(messages),
	})
}

// AddMessage handles POST /api/v1/chats/{chat_id}/messages
func (h *ChatsHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")

	var req models.AddMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Role == "" || req.Type == "" {
		models.WriteError(w, http.StatusBadRequest, "role and type are required")
		return
	}

	messageID, err := h.store.AddMessage(r.Context(), chatID, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			models.WriteError(w, http.StatusNotFound, "chat not found")
			return
		}
		models.WriteError(w, http.StatusInternalServerError, "failed to add message: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"id":     messageID,
	})
}

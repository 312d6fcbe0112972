// Package api exposes the request/response HTTP surface: account signup
// and login, message history and search. The real-time path lives in the
// gateway package.
package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/services"
)

// Handler serves all /api/* endpoints plus the health check.
type Handler struct {
	log  *slog.Logger
	auth services.IAuthService
	chat services.IChatService
	mux  *http.ServeMux
}

// New creates a Handler and registers all routes. The websocket gateway is
// mounted by the caller alongside this handler.
func New(log *slog.Logger, authService services.IAuthService, chatService services.IChatService) *Handler {
	h := &Handler{log: log, auth: authService, chat: chatService, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/auth/signup", h.signup)
	h.mux.HandleFunc("/api/auth/login", h.login)
	h.mux.HandleFunc("/api/chat/messages", h.messages)
	h.mux.HandleFunc("/api/chat/messages/search", h.search)
	h.mux.HandleFunc("/healthz", h.health)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.auth.Register(req.Username, req.Email, req.Password)
	switch {
	case err == nil:
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		jsonErr(w, http.StatusConflict, "user already exists")
		return
	case stderrors.Is(err, errors.ErrInvalidPassword):
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.log.Error("signup failed", "err", err)
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonResp(w, http.StatusCreated, AuthResponse{
		Success: true,
		Token:   string(token),
		User:    UserResponse{ID: user.ID, Username: user.Username},
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		// Always the same message, whatever actually failed.
		jsonErr(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	jsonResp(w, http.StatusOK, AuthResponse{
		Success: true,
		Token:   string(token),
		User:    UserResponse{ID: user.ID, Username: user.Username},
	})
}

// messages returns GET /api/chat/messages?limit&before — history backfill,
// ascending createdAt.
func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cmd := chat.GetMessagesCommand{Limit: queryInt(r, "limit")}
	if before := r.URL.Query().Get("before"); before != "" {
		cmd.Before = &before
	}

	messages, next, err := h.chat.GetMessages(cmd)
	if err != nil {
		h.log.Error("history read failed", "err", err)
		jsonErr(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	jsonResp(w, http.StatusOK, MessagesResponse{Success: true, Messages: messages, Next: next})
}

// search returns GET /api/chat/messages/search?q&limit — full-text results,
// newest first.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	terms := r.URL.Query().Get("q")
	if terms == "" {
		jsonErr(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	messages, err := h.chat.SearchMessages(r.Context(), chat.SearchMessagesCommand{
		Terms: terms,
		Limit: queryInt(r, "limit"),
	})
	if err != nil {
		h.log.Error("search failed", "err", err)
		jsonErr(w, http.StatusServiceUnavailable, "search unavailable")
		return
	}

	jsonResp(w, http.StatusOK, MessagesResponse{Success: true, Messages: messages})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "ok")
}

// --- helpers ----------------------------------------------------------------

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

func jsonResp(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonErr(w http.ResponseWriter, status int, message string) {
	jsonResp(w, status, ErrorResponse{Success: false, Message: message})
}

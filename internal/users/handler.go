package users

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/roledesk/internal/platform/httpx"
	"github.com/odyssey-erp/roledesk/internal/shared"
)

// Handler exposes the user store over JSON.
type Handler struct {
	logger *slog.Logger
	store  *Store
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store *Store) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Get("/role-options", h.listRoleOptions)
	r.Get("/{id}", h.getUser)
	r.Put("/{id}", h.updateUser)
	r.Delete("/{id}", h.deleteUser)
}

// userRequest carries form values; roleId may arrive as the select box's
// string value.
type userRequest struct {
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	RoleID json.RawMessage `json:"roleId"`
}

func decodeUserRequest(r *http.Request) (name, email string, roleID int64, err error) {
	var req userRequest
	if err = httpx.DecodeJSON(r, &req); err != nil {
		return "", "", 0, err
	}
	roleID, err = parseRoleRef(req.RoleID)
	if err != nil {
		return "", "", 0, shared.NewValidationError("roleId", "roleId must be a number")
	}
	return req.Name, req.Email, roleID, nil
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.store.Summaries())
}

func (h *Handler) listRoleOptions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.store.RoleOptions())
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.store.Get(id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	name, email, roleID, err := decodeUserRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.store.Create(r.Context(), name, email, roleID)
	if err != nil {
		h.fail(w, r, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	name, email, roleID, err := decodeUserRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.store.Update(r.Context(), id, name, email, roleID)
	if err != nil {
		h.fail(w, r, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.WarnContext(r.Context(), action+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}

package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/roledesk/internal/platform/httpx"
)

// Handler exposes the role store over JSON.
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

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
	r.Post("/", h.createRole)
	r.Post("/permissions/custom", h.addCustomPermission)
	r.Post("/permissions/custom/remove", h.removeCustomPermission)
	r.Get("/{id}", h.getRole)
	r.Put("/{id}", h.updateRole)
	r.Delete("/{id}", h.deleteRole)
}

type roleRequest struct {
	Name        string      `json:"name"`
	Permissions Permissions `json:"permissions"`
}

type customPermissionRequest struct {
	Permissions Permissions `json:"permissions"`
	Label       string      `json:"label"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.store.Get(id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.store.Create(r.Context(), req.Name, req.Permissions)
	if err != nil {
		h.fail(w, r, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.store.Update(r.Context(), id, req.Name, req.Permissions)
	if err != nil {
		h.fail(w, r, "update role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addCustomPermission(w http.ResponseWriter, r *http.Request) {
	var req customPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, AddCustomPermission(req.Permissions, req.Label))
}

func (h *Handler) removeCustomPermission(w http.ResponseWriter, r *http.Request) {
	var req customPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, RemoveCustomPermission(req.Permissions, req.Label))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.WarnContext(r.Context(), action+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}

package product

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/hoangle-dev/storefront/internal/apperr"
	"github.com/hoangle-dev/storefront/internal/auth"
	"github.com/hoangle-dev/storefront/internal/httpx"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	return r
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	var p Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.RespondError(w, apperr.Validation("invalid request body"))
		return
	}

	created, err := h.svc.Create(r.Context(), actor, &p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, apperr.Validation("invalid product id", "id"))
		return
	}

	var p Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.RespondError(w, apperr.Validation("invalid request body"))
		return
	}
	p.ID = id

	updated, err := h.svc.Update(r.Context(), actor, &p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, apperr.Validation("invalid product id", "id"))
		return
	}

	p, err := h.svc.GetByID(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	var filter Filter
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := uuid.FromString(raw)
		if err != nil {
			httpx.RespondError(w, apperr.Validation("invalid category id", "category_id"))
			return
		}
		filter.CategoryID = &categoryID
	}

	page := pageFromQuery(r)

	products, err := h.svc.List(r.Context(), actor, filter, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, products)
}

func pageFromQuery(r *http.Request) Page {
	var page Page
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.Limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.Offset = v
		}
	}
	return page.Normalize()
}

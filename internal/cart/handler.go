package cart

import (
	"encoding/json"
	"net/http"

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
	r.Get("/", h.View)
	r.Post("/items", h.AddItem)
	r.Post("/items/{productID}/increase", h.IncreaseQuantity)
	r.Post("/items/{productID}/decrease", h.DecreaseQuantity)
	r.Delete("/items/{productID}", h.RemoveItem)
	r.Delete("/", h.Clear)
	return r
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, apperr.Validation("invalid request body"))
		return
	}

	view, err := h.svc.AddItem(r.Context(), actor, req.ProductID, req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, false)
}

func (h *Handler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, true)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request, decrease bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.RespondError(w, apperr.Validation("invalid product id", "product_id"))
		return
	}

	req := adjustRequest{Delta: 1}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.RespondError(w, apperr.Validation("invalid request body"))
			return
		}
	}

	var view *View
	if decrease {
		view, err = h.svc.DecreaseQuantity(r.Context(), actor, productID, req.Delta)
	} else {
		view, err = h.svc.IncreaseQuantity(r.Context(), actor, productID, req.Delta)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.RespondError(w, apperr.Validation("invalid product id", "product_id"))
		return
	}

	view, err := h.svc.RemoveItem(r.Context(), actor, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	view, err := h.svc.Clear(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	view, err := h.svc.View(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, view)
}

package order

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

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
	r.Post("/{id}/status", h.TransitionStatus)
	r.Post("/{id}/shipper", h.AssignShipper)
	return r
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, apperr.Validation("invalid order id", "id"))
		return
	}

	o, err := h.svc.GetByID(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, o)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	page, err := pageFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	orders, err := h.svc.List(r.Context(), actor, filter, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, orders)
}

type transitionRequest struct {
	Status       Status `json:"status"`
	CancelReason string `json:"cancel_reason,omitempty"`
}

func (h *Handler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, apperr.Validation("invalid order id", "id"))
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, apperr.Validation("invalid request body"))
		return
	}

	o, err := h.svc.TransitionStatus(r.Context(), actor, id, req.Status, req.CancelReason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, o)
}

type assignShipperRequest struct {
	ShipperID uuid.UUID `json:"shipper_id"`
}

func (h *Handler) AssignShipper(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.RespondError(w, apperr.Unauthenticated("authentication required"))
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, apperr.Validation("invalid order id", "id"))
		return
	}

	var req assignShipperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, apperr.Validation("invalid request body"))
		return
	}
	if req.ShipperID == uuid.Nil {
		httpx.RespondError(w, apperr.Validation("shipper_id is required", "shipper_id"))
		return
	}

	o, err := h.svc.AssignShipper(r.Context(), actor, id, req.ShipperID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, o)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	var filter Filter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			return Filter{}, apperr.Validation("unknown status", "status")
		}
		filter.Status = &status
	}
	if raw := q.Get("shipper_id"); raw != "" {
		shipperID, err := uuid.FromString(raw)
		if err != nil {
			return Filter{}, apperr.Validation("invalid shipper id", "shipper_id")
		}
		filter.ShipperID = &shipperID
	}
	if raw := q.Get("date_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Filter{}, apperr.Validation("invalid date_from, expected RFC3339", "date_from")
		}
		filter.DateFrom = &t
	}
	if raw := q.Get("date_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Filter{}, apperr.Validation("invalid date_to, expected RFC3339", "date_to")
		}
		filter.DateTo = &t
	}
	if raw := q.Get("min_total"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, apperr.Validation("invalid min_total", "min_total")
		}
		filter.MinTotal = &v
	}
	if raw := q.Get("max_total"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, apperr.Validation("invalid max_total", "max_total")
		}
		filter.MaxTotal = &v
	}
	if raw := q.Get("search"); raw != "" {
		filter.Search = strings.TrimSpace(raw)
	}

	return filter, nil
}

func pageFromQuery(r *http.Request) (Page, error) {
	var page Page
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.Limit = v
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.Offset = v
		}
	}
	if raw := q.Get("sort"); raw != "" {
		if !SortableColumn(raw) {
			return Page{}, apperr.Validation("unsupported sort column", "sort")
		}
		page.Sort = raw
	}
	switch dir := q.Get("dir"); dir {
	case "", "asc":
	case "desc":
		page.Desc = true
	default:
		return Page{}, apperr.Validation("dir must be asc or desc", "dir")
	}
	if page.Sort == "" && q.Get("dir") != "" {
		// An explicit direction without a sort column applies to the default.
		page.Sort = "order_date"
	}

	return page.Normalize(), nil
}

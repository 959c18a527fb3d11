package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
)

type HTTPHandler struct {
	purchases *service.PurchaseService
	items     *service.ItemService
}

type purchaseLineRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type purchaseHTTPRequest struct {
	CustomerName    string                `json:"customer_name"`
	ShippingAddress string                `json:"shipping_address"`
	Items           []purchaseLineRequest `json:"items"`
}

type purchaseCreatedResponse struct {
	PurchaseID int64 `json:"purchase_id"`
}

type purchaseLineResponse struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type purchaseResponse struct {
	ID              int64                  `json:"id"`
	CustomerName    string                 `json:"customer_name"`
	ShippingAddress string                 `json:"shipping_address"`
	CreatedAt       time.Time              `json:"created_at"`
	Items           []purchaseLineResponse `json:"items"`
}

type itemHTTPRequest struct {
	Name  string          `json:"name"`
	Stock int             `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

type itemResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type stockResponse struct {
	ItemID int64 `json:"item_id"`
	Stock  int   `json:"stock"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewHTTPHandler(purchases *service.PurchaseService, items *service.ItemService) *HTTPHandler {
	return &HTTPHandler{purchases: purchases, items: items}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/purchases", h.SubmitPurchase)
	mux.HandleFunc("GET /api/purchases", h.ListPurchases)
	mux.HandleFunc("GET /api/purchases/{id}", h.GetPurchase)

	mux.HandleFunc("POST /api/items", h.CreateItem)
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("GET /api/items/{id}", h.GetItem)
	mux.HandleFunc("PUT /api/items/{id}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.DeleteItem)
	mux.HandleFunc("GET /api/items/{id}/stock", h.GetStock)
}

func (h *HTTPHandler) SubmitPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "invalid request body",
		})
		return
	}

	lines := make([]domain.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, domain.LineRequest{ItemID: item.ItemID, Quantity: item.Quantity})
	}

	id, err := h.purchases.Submit(r.Context(), domain.PurchaseRequest{
		CustomerName:    req.CustomerName,
		ShippingAddress: req.ShippingAddress,
		Lines:           lines,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, purchaseCreatedResponse{PurchaseID: id})
}

func (h *HTTPHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.purchases.GetPurchase(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseResponse(*p))
}

func (h *HTTPHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	purchases, err := h.purchases.ListPurchases(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "invalid request body",
		})
		return
	}

	id, err := h.items.Create(r.Context(), domain.Item{
		Name:  req.Name,
		Stock: req.Stock,
		Price: req.Price,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(*item))
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(*item))
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req itemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "invalid request body",
		})
		return
	}

	err := h.items.Update(r.Context(), domain.Item{
		ID:    id,
		Name:  req.Name,
		Stock: req.Stock,
		Price: req.Price,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(*item))
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.items.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stock, err := h.items.Stock(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{ItemID: id, Stock: stock})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps service errors onto the wire taxonomy. Anything outside
// the known classes is a storage failure and its detail stays server-side.
func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "insufficient_stock_or_invalid_item",
		})
	case errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrPurchaseNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrItemReferenced):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "item_referenced",
			Message: err.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "storage_error",
		})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func toPurchaseResponse(p domain.Purchase) purchaseResponse {
	items := make([]purchaseLineResponse, 0, len(p.Lines))
	for _, line := range p.Lines {
		items = append(items, purchaseLineResponse{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	return purchaseResponse{
		ID:              p.ID,
		CustomerName:    p.CustomerName,
		ShippingAddress: p.ShippingAddress,
		CreatedAt:       p.CreatedAt,
		Items:           items,
	}
}

func toItemResponse(item domain.Item) itemResponse {
	return itemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Stock:     item.Stock,
		Price:     item.Price,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

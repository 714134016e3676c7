package api

import (
	"net/http"
	"time"

	"aura/internal/booking"
	"aura/internal/db"
	"aura/internal/models"
)

// MenuItemResponse exposes prices as decimal euros.
type MenuItemResponse struct {
	models.MenuItem
	Price          float64 `json:"price"`
	EffectivePrice float64 `json:"effectivePrice"`
}

type OrderLineRequest struct {
	MenuItemID int64  `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// CreateOrderRequest is the body of POST /api/orders and /api/orders/guest.
type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items"`
	CustomerName    string             `json:"customerName,omitempty"`
	Phone           string             `json:"phone,omitempty"`
	DeliveryAddress string             `json:"deliveryAddress"`
	Notes           string             `json:"notes,omitempty"`
}

type UpdateOrderRequest struct {
	Status     *string `json:"status,omitempty"`
	AdminNotes *string `json:"adminNotes,omitempty"`
}

type OrderItemResponse struct {
	MenuItemID int64   `json:"menuItemId"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	Notes      string  `json:"notes,omitempty"`
}

type OrderResponse struct {
	ID              int64               `json:"id"`
	UserID          *int64              `json:"userId,omitempty"`
	CustomerName    string              `json:"customerName"`
	Phone           string              `json:"phone"`
	DeliveryAddress string              `json:"deliveryAddress"`
	Notes           string              `json:"notes,omitempty"`
	AdminNotes      string              `json:"adminNotes,omitempty"`
	Status          models.OrderStatus  `json:"status"`
	Total           float64             `json:"totalAmount"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func orderResponse(o *models.Order, withAdminNotes bool) OrderResponse {
	out := OrderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		CustomerName:    o.CustomerName,
		Phone:           o.Phone,
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		Status:          o.Status,
		Total:           o.Total.Euros(),
		Items:           make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if withAdminNotes {
		out.AdminNotes = o.AdminNotes
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemResponse{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice.Euros(),
			Quantity:   it.Quantity,
			Notes:      it.Notes,
		})
	}
	return out
}

func (req *CreateOrderRequest) toBooking() booking.OrderRequest {
	out := booking.OrderRequest{
		CustomerName:    req.CustomerName,
		Phone:           req.Phone,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	}
	for _, line := range req.Items {
		out.Items = append(out.Items, booking.OrderLine{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			Notes:      line.Notes,
		})
	}
	return out
}

// GET /api/menu
func (s *HTTPServer) handleMenu(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListMenuItems(r.Context(), true)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]MenuItemResponse, 0, len(items))
	for i := range items {
		out = append(out, MenuItemResponse{
			MenuItem:       items[i],
			Price:          items[i].Price.Euros(),
			EffectivePrice: items[i].EffectivePrice().Euros(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/orders
func (s *HTTPServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	actor := actorFrom(r.Context())
	o, err := s.booking.CreateOrder(r.Context(), &actor, req.toBooking())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse(o, false))
}

// POST /api/orders/guest
func (s *HTTPServer) handleCreateGuestOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	o, err := s.booking.CreateOrder(r.Context(), nil, req.toBooking())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse(o, false))
}

// GET /api/my-orders
func (s *HTTPServer) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	s.listOrders(w, r, db.OrderFilter{UserID: actorFrom(r.Context()).UserID}, false)
}

// GET /api/orders?status=Pending
func (s *HTTPServer) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var f db.OrderFilter
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := models.ParseOrderStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Status = st
	}
	s.listOrders(w, r, f, true)
}

func (s *HTTPServer) listOrders(w http.ResponseWriter, r *http.Request, f db.OrderFilter, admin bool) {
	list, err := s.store.ListOrders(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]OrderResponse, 0, len(list))
	for i := range list {
		out = append(out, orderResponse(&list[i], admin))
	}
	writeJSON(w, http.StatusOK, out)
}

// PUT /api/orders/{id}
func (s *HTTPServer) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	o, err := s.booking.UpdateOrder(r.Context(), actorFrom(r.Context()), id, booking.OrderUpdate{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(o, true))
}

// DELETE /api/orders/{id}
func (s *HTTPServer) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.booking.DeleteOrder(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

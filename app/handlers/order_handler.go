package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-ecommerce-api/app/helpers"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/services"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	orders *services.OrderService
	money  *helpers.MoneyFormatter
	resp   *Responder
}

func NewOrderHandler(orders *services.OrderService, money *helpers.MoneyFormatter, resp *Responder) *OrderHandler {
	return &OrderHandler{orders: orders, money: money, resp: resp}
}

type PlacedOrders struct {
	Orders       []models.Order  `json:"orders"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"total_display"`
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in services.PlaceOrderInput
	if err := decodeJSON(r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	orders, err := h.orders.PlaceOrder(r.Context(), userID(r), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	total := services.OrderTotal(orders)
	h.resp.OK(w, http.StatusCreated, "order placed", PlacedOrders{
		Orders:       orders,
		Total:        total,
		TotalDisplay: h.money.Format(total),
	})
}

func (h *OrderHandler) UserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.GetUserOrders(r.Context(), userID(r))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "orders retrieved", orders)
}

func (h *OrderHandler) VendorOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.GetVendorOrders(r.Context(), userID(r))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "orders retrieved", orders)
}

// UpdateStatus reads the target status from the query string, falling back
// to a JSON body.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(r, &body); err != nil {
			h.resp.Error(w, r, err)
			return
		}
		status = body.Status
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), userID(r), mux.Vars(r)["orderId"], status)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "order status updated", order)
}

package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-ecommerce-api/app/services"
	"github.com/gorilla/mux"
)

type CartHandler struct {
	carts *services.CartService
	resp  *Responder
}

func NewCartHandler(carts *services.CartService, resp *Responder) *CartHandler {
	return &CartHandler{carts: carts, resp: resp}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.carts.GetCart(r.Context(), userID(r))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "cart retrieved", items)
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var in services.AddToCartInput
	if err := decodeJSON(r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	item, err := h.carts.AddToCart(r.Context(), userID(r), mux.Vars(r)["productId"], in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "product added to cart", item)
}

func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateCartInput
	if err := decodeJSON(r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	item, err := h.carts.UpdateCart(r.Context(), userID(r), mux.Vars(r)["cartId"], in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "cart updated", item)
}

func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.RemoveFromCart(r.Context(), userID(r), mux.Vars(r)["cartId"]); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "item removed from cart", nil)
}

package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-ecommerce-api/app/services"
	"github.com/gorilla/mux"
)

type WishlistHandler struct {
	wishlist *services.WishlistService
	resp     *Responder
}

func NewWishlistHandler(wishlist *services.WishlistService, resp *Responder) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, resp: resp}
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.wishlist.GetWishlist(r.Context(), userID(r))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "wishlist retrieved", items)
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	entry, err := h.wishlist.AddToWishlist(r.Context(), userID(r), mux.Vars(r)["productId"])
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusCreated, "product added to wishlist", entry)
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.wishlist.RemoveFromWishlist(r.Context(), userID(r), mux.Vars(r)["productId"]); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "product removed from wishlist", nil)
}

func (h *WishlistHandler) Check(w http.ResponseWriter, r *http.Request) {
	in, err := h.wishlist.IsInWishlist(r.Context(), userID(r), mux.Vars(r)["productId"])
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "wishlist checked", map[string]bool{"in_wishlist": in})
}

package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-ecommerce-api/app/services"
	"github.com/gorilla/mux"
)

type ReviewHandler struct {
	reviews *services.ReviewService
	resp    *Responder
}

func NewReviewHandler(reviews *services.ReviewService, resp *Responder) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, resp: resp}
}

func (h *ReviewHandler) ProductReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.GetProductReviews(r.Context(), mux.Vars(r)["productId"])
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "reviews retrieved", reviews)
}

func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var in services.AddReviewInput
	if err := decodeJSON(r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	review, err := h.reviews.AddReview(r.Context(), userID(r), mux.Vars(r)["productId"], in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusCreated, "review added", review)
}

func (h *ReviewHandler) CanReview(w http.ResponseWriter, r *http.Request) {
	ok, err := h.reviews.CanReview(r.Context(), userID(r), mux.Vars(r)["productId"])
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "review eligibility checked", map[string]bool{"can_review": ok})
}

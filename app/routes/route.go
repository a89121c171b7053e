package routes

import (
	"log/slog"
	"net/http"

	"github.com/Rakhulsr/go-ecommerce-api/app/auth"
	"github.com/Rakhulsr/go-ecommerce-api/app/cache"
	"github.com/Rakhulsr/go-ecommerce-api/app/events"
	"github.com/Rakhulsr/go-ecommerce-api/app/handlers"
	"github.com/Rakhulsr/go-ecommerce-api/app/helpers"
	"github.com/Rakhulsr/go-ecommerce-api/app/metrics"
	"github.com/Rakhulsr/go-ecommerce-api/app/middlewares"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/repositories"
	"github.com/Rakhulsr/go-ecommerce-api/app/services"
	"github.com/Rakhulsr/go-ecommerce-api/app/utils/renderer"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Dependencies struct {
	DB        *gorm.DB
	Cache     cache.Cache
	Publisher events.Publisher
	Tokens    *auth.TokenService
	Media     *services.LocalMediaStore
	Money     *helpers.MoneyFormatter
	Logger    *slog.Logger
}

func NewRouter(deps Dependencies) *mux.Router {
	db := deps.DB
	tx := repositories.NewTransactor(db)

	productRepo := repositories.NewProductRepository(db)
	cartItemRepo := repositories.NewCartItemRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	wishlistRepo := repositories.NewWishlistRepository(db)
	userRepo := repositories.NewUserRepository(db)

	catalog := services.NewProductService(tx, productRepo, reviewRepo, cartItemRepo, wishlistRepo, deps.Cache, deps.Media, deps.Logger)
	carts := services.NewCartService(tx, cartItemRepo, productRepo, deps.Cache, deps.Logger)
	orders := services.NewOrderService(tx, orderRepo, cartItemRepo, productRepo, carts, catalog, deps.Publisher, deps.Logger)
	reviews := services.NewReviewService(reviewRepo, orderRepo, productRepo, catalog, deps.Logger)
	wishlist := services.NewWishlistService(wishlistRepo, productRepo, reviewRepo, deps.Cache, deps.Logger)
	authService := services.NewAuthService(userRepo, deps.Tokens, deps.Logger)

	resp := handlers.NewResponder(renderer.New(false), deps.Logger)
	authHandler := handlers.NewAuthHandler(authService, resp)
	productHandler := handlers.NewProductHandler(catalog, resp)
	cartHandler := handlers.NewCartHandler(carts, resp)
	wishlistHandler := handlers.NewWishlistHandler(wishlist, resp)
	orderHandler := handlers.NewOrderHandler(orders, deps.Money, resp)
	reviewHandler := handlers.NewReviewHandler(reviews, resp)

	authenticate := middlewares.AuthMiddleware(deps.Tokens, resp)
	user := func(h http.HandlerFunc) http.Handler {
		return authenticate(h)
	}
	vendor := func(h http.HandlerFunc) http.Handler {
		return authenticate(middlewares.RoleMiddleware(resp, models.RoleVendor)(h))
	}
	customer := func(h http.HandlerFunc) http.Handler {
		return authenticate(middlewares.RoleMiddleware(resp, models.RoleCustomer)(h))
	}

	router := mux.NewRouter()
	router.Use(middlewares.LoggingMiddleware(deps.Logger))

	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.PathPrefix("/images/").Handler(http.StripPrefix("/images/", http.FileServer(http.Dir(deps.Media.Dir())))).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	api.Handle("/products/vendor/mine", vendor(productHandler.VendorProducts)).Methods("GET")
	api.HandleFunc("/products", productHandler.List).Methods("GET")
	api.HandleFunc("/products/{id}", productHandler.Get).Methods("GET")
	api.Handle("/products", vendor(productHandler.Create)).Methods("POST")
	api.Handle("/products/{id}", vendor(productHandler.Update)).Methods("PUT")
	api.Handle("/products/{id}", vendor(productHandler.Delete)).Methods("DELETE")

	api.Handle("/cart", user(cartHandler.GetCart)).Methods("GET")
	api.Handle("/cart/add/{productId}", user(cartHandler.AddToCart)).Methods("POST")
	api.Handle("/cart/{cartId}", user(cartHandler.UpdateCart)).Methods("PUT")
	api.Handle("/cart/{cartId}", user(cartHandler.RemoveFromCart)).Methods("DELETE")

	api.Handle("/wishlist", user(wishlistHandler.GetWishlist)).Methods("GET")
	api.Handle("/wishlist/add/{productId}", user(wishlistHandler.Add)).Methods("POST")
	api.Handle("/wishlist/remove/{productId}", user(wishlistHandler.Remove)).Methods("DELETE")
	api.Handle("/wishlist/check/{productId}", user(wishlistHandler.Check)).Methods("GET")

	api.Handle("/orders/place", user(orderHandler.PlaceOrder)).Methods("POST")
	api.Handle("/orders", user(orderHandler.UserOrders)).Methods("GET")
	api.Handle("/orders/vendor", vendor(orderHandler.VendorOrders)).Methods("GET")
	api.Handle("/orders/{orderId}/status", user(orderHandler.UpdateStatus)).Methods("PUT")

	api.HandleFunc("/reviews/product/{productId}", reviewHandler.ProductReviews).Methods("GET")
	api.Handle("/reviews/product/{productId}", customer(reviewHandler.AddReview)).Methods("POST")
	api.Handle("/reviews/can-review/{productId}", customer(reviewHandler.CanReview)).Methods("GET")

	return router
}

package router

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Product   *handler.ProductHandler
	Search    *handler.SearchHandler
	Cart      *handler.CartHandler
	Order     *handler.OrderHandler
	Webhook   *handler.WebhookHandler
	Analytics *handler.AnalyticsHandler

	// Metrics serves the Prometheus exposition. Nil disables /metrics.
	Metrics http.Handler

	// Ping reports database health. Nil reports healthy unconditionally.
	Ping func(ctx context.Context) error
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth config.AuthConfig, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	apiKey := middleware.APIKeyAuth(auth.APIKey, logger)
	requireUser := middleware.JWTAuth(auth.JWTSecret, logger)
	optionalUser := middleware.OptionalJWT(auth.JWTSecret, logger)

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", health(h.Ping))
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Product.List)
	mux.HandleFunc("GET /api/products/{slug}", h.Product.GetBySlug)
	mux.HandleFunc("GET /api/products/{slug}/reviews", h.Product.ListReviews)

	mux.HandleFunc("GET /api/search", h.Search.Search)
	mux.HandleFunc("GET /api/search/suggestions", h.Search.Suggestions)
	mux.HandleFunc("GET /api/search/popular", h.Search.Popular)

	// Cart: session key, bearer token or both
	mux.Handle("GET /api/cart", optionalUser(http.HandlerFunc(h.Cart.Get)))
	mux.Handle("DELETE /api/cart", optionalUser(http.HandlerFunc(h.Cart.Clear)))
	mux.Handle("POST /api/cart/items", optionalUser(http.HandlerFunc(h.Cart.AddItem)))
	mux.Handle("PATCH /api/cart/items/{productID}", optionalUser(http.HandlerFunc(h.Cart.UpdateItem)))
	mux.Handle("DELETE /api/cart/items/{productID}", optionalUser(http.HandlerFunc(h.Cart.RemoveItem)))

	// Orders
	mux.Handle("POST /api/orders/checkout", requireUser(http.HandlerFunc(h.Order.Checkout)))
	mux.Handle("GET /api/orders", requireUser(http.HandlerFunc(h.Order.List)))
	mux.Handle("GET /api/orders/{id}", requireUser(http.HandlerFunc(h.Order.GetByID)))
	mux.Handle("POST /api/orders/{id}/pay", requireUser(http.HandlerFunc(h.Order.Pay)))

	// Payment provider callbacks authenticate by signature
	mux.HandleFunc("POST /webhook/{provider}", h.Webhook.Handle)

	// Admin reports
	admin := func(fn http.HandlerFunc) http.Handler { return apiKey(fn) }
	mux.Handle("GET /api/admin/analytics/overview", admin(h.Analytics.SalesOverview))
	mux.Handle("GET /api/admin/analytics/daily-sales", admin(h.Analytics.DailySales))
	mux.Handle("GET /api/admin/analytics/categories", admin(h.Analytics.CategorySales))
	mux.Handle("GET /api/admin/analytics/top-products", admin(h.Analytics.TopProducts))
	mux.Handle("GET /api/admin/analytics/payment-methods", admin(h.Analytics.PaymentMethods))
	mux.Handle("GET /api/admin/analytics/customers", admin(h.Analytics.CustomerMetrics))
	mux.Handle("GET /api/admin/analytics/inventory-alerts", admin(h.Analytics.InventoryAlerts))
	mux.Handle("GET /api/admin/analytics/recent-orders", admin(h.Analytics.RecentOrders))
	mux.Handle("GET /api/admin/analytics/dashboard", admin(h.Analytics.Dashboard))

	// Apply middleware in order: RequestID -> Logging -> Recovery -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)

	return otelhttp.NewHandler(handler, "storefront-api")
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_requests_total",
		Help: "Cache lookups by cache family and result (hit or miss).",
	}, []string{"family", "result"})

	StockConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_stock_conflicts_total",
		Help: "Revision-guarded product writes that lost a race, by operation.",
	}, []string{"operation"})

	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Orders created at checkout.",
	})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_transitions_total",
		Help: "Applied order status transitions by target status.",
	}, []string{"status"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

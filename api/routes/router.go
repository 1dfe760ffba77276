package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesapos/mesa-backend/api/controllers"
	"github.com/mesapos/mesa-backend/api/middleware"
	"github.com/mesapos/mesa-backend/internal/catalog"
	"github.com/mesapos/mesa-backend/internal/ledger"
	"github.com/mesapos/mesa-backend/internal/orders"
	"github.com/mesapos/mesa-backend/internal/tables"
	"github.com/mesapos/mesa-backend/pkg/config"
	"github.com/mesapos/mesa-backend/pkg/db"
	"github.com/mesapos/mesa-backend/pkg/logger"
	pkgredis "github.com/mesapos/mesa-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	promGatherer prometheus.Gatherer,
	ordersService orders.Service,
	ledgerService ledger.Service,
	tablesService tables.Service,
	catalogRepo catalog.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisP pkgredis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if promGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OpenOrder(ordersService, logg))
			r.Get("/", controllers.ListOpenOrders(ordersService, logg))

			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(ordersService, logg))
				r.Post("/lines", controllers.AddOrderLine(ordersService, logg))
				r.Patch("/lines/{lineID}", controllers.UpdateOrderLine(ordersService, logg))
				r.Delete("/lines/{lineID}", controllers.RemoveOrderLine(ordersService, logg))
				r.Post("/place", controllers.PlaceOrder(ordersService, logg))
				r.Post("/kot", controllers.PrintOrderKOT(ordersService, logg))
				r.Post("/complete", controllers.CompleteOrder(ordersService, logg))
				r.Post("/cancel", controllers.CancelOrder(ordersService, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/snapshot", controllers.InventorySnapshot(ledgerService, logg))
			r.Get("/history", controllers.InventoryHistory(ledgerService, logg))
			r.Post("/restock", controllers.InventoryRestock(ledgerService, catalogRepo, logg))
		})

		r.Get("/menu-items/{menuItemID}/availability", controllers.MenuItemAvailability(catalogRepo, ledgerService, logg))

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", controllers.ListTables(tablesService, logg))
			r.Get("/{tableID}", controllers.GetTable(tablesService, logg))
		})
	})

	return r
}

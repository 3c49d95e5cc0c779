package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/cart"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/checkout"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/config"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/expiration"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/httpx"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/idempotency"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/inventory"
	kafkax "github.com/vanshkansal25/Ecommerce-Backend/internal/kafka"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/logging"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/payment"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/queue"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.ServiceName + "-api")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	txr := &postgres.PoolRunner{Pool: db}

	// Redis: cart cache + delayed compensating queue
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := &redisx.CartCache{RDB: rdb}
	delayed := queue.New(rdb, log)

	// Kafka producers, one per topic
	createdProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	createdProd.Start(ctx)
	cancelledProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024, log)
	cancelledProd.Start(ctx)
	authorizedProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentAuthorized, 1024, log)
	authorizedProd.Start(ctx)

	// Stores
	cartRepo := cart.NewRepo()
	orderRepo := orders.NewRepo()
	ledger := inventory.NewLedger()
	idemLedger := idempotency.NewLedger()

	orch := &checkout.Orchestrator{
		Tx:      txr,
		DB:      db,
		Cart:    cartRepo,
		Inv:     ledger,
		Ord:     orderRepo,
		Idem:    idemLedger,
		Queue:   delayed,
		Cache:   cache,
		Events:  createdProd,
		Window:  cfg.ReservationWindow,
		Service: cfg.ServiceName + "-api",
		Log:     log,
	}

	bridge := &payment.Bridge{
		DB:       db,
		Orders:   orderRepo,
		Gateway:  payment.NewGateway(cfg.GatewayBaseURL, cfg.GatewayAPIKey),
		Currency: cfg.Currency,
		Log:      log,
	}

	// Same compensating body as the worker, used by the explicit cancel.
	comp := &expiration.Compensator{
		Tx:      txr,
		Ord:     orderRepo,
		Inv:     ledger,
		Events:  cancelledProd,
		Service: cfg.ServiceName + "-api",
		Log:     log,
	}

	dev := cfg.Development()
	checkoutH := &httpx.CheckoutHandler{Orch: orch, Log: log, Dev: dev}
	cartH := &httpx.CartHandler{DB: db, Tx: txr, Repo: cartRepo, Cache: cache, Log: log, Dev: dev}
	ordersH := &httpx.OrdersHandler{
		DB: db, Repo: orderRepo, Bridge: bridge, Comp: comp,
		AuthorizedEvents: authorizedProd,
		Service:          cfg.ServiceName + "-api", Log: log, Dev: dev,
	}
	stockH := &httpx.StockHandler{DB: db, Ledger: ledger, Log: log, Dev: dev}

	router := httpx.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httpx.RequireUser(log, dev))
			checkoutH.Register(r)
			cartH.Register(r)
			ordersH.Register(r)
		})
		ordersH.RegisterWebhook(r)
		r.Route("/admin", func(r chi.Router) {
			r.Use(httpx.RequireAdmin(cfg.AdminToken, log, dev))
			stockH.Register(r)
		})
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen failed", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{createdProd, cancelledProd, authorizedProd} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{createdProd, cancelledProd, authorizedProd} {
		p.WaitClosed()
	}
}

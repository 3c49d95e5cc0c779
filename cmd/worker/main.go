package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/config"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/expiration"
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
	log := logging.New(cfg.ServiceName + "-worker")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	txr := &postgres.PoolRunner{Pool: db}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	delayed := queue.New(rdb, log)

	cancelledProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024, log)
	cancelledProd.Start(ctx)
	paidProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024, log)
	paidProd.Start(ctx)

	orderRepo := orders.NewRepo()
	ledger := inventory.NewLedger()

	comp := &expiration.Compensator{
		Tx:      txr,
		Ord:     orderRepo,
		Inv:     ledger,
		Events:  cancelledProd,
		Service: cfg.ServiceName + "-worker",
		Log:     log,
	}
	sweeper := &expiration.Sweeper{
		DB:       db,
		Orders:   orderRepo,
		Comp:     comp,
		Window:   cfg.ReservationWindow,
		Grace:    time.Minute,
		Interval: cfg.SweepInterval,
		Log:      log,
	}
	confirmer := &payment.Confirmer{
		DB:      db,
		Orders:  orderRepo,
		Events:  paidProd,
		Service: cfg.ServiceName + "-worker",
		Log:     log,
	}

	group := getenv("PAYMENT_GROUP", "order-worker")
	workers := mustAtoi(os.Getenv("PAYMENT_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicPaymentAuthorized, workers, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("expiration consumer started", "topic", orders.QueueExpiration)
		return delayed.Consume(gctx, orders.QueueExpiration, comp.HandleJob)
	})
	g.Go(func() error {
		log.Info("reconciliation sweeper started", "interval", cfg.SweepInterval.String())
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		log.Info("payment consumer started", "group", group, "topic", orders.TopicPaymentAuthorized, "workers", workers)
		return cons.Start(gctx, confirmer.HandleAuthorized)
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down worker")
	case <-gctx.Done():
	}

	cancelledProd.Close()
	paidProd.Close()
	cancel()
	if err := g.Wait(); err != nil {
		log.Error("worker exited with error", "err", err)
	}
	cancelledProd.WaitClosed()
	paidProd.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

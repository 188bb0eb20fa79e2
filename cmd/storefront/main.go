// package main является точкой входа витрины. Сервис поднимает HTTP API
// корзины и оформления заказа, публикует заказы и события изменения
// конфигурации в Kafka и перечитывает конфигурацию, когда её меняет
// другой экземпляр.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/YusovID/storefront/internal/adminconfig"
	"github.com/YusovID/storefront/internal/cart"
	"github.com/YusovID/storefront/internal/checkout"
	"github.com/YusovID/storefront/internal/config"
	"github.com/YusovID/storefront/internal/delivery"
	"github.com/YusovID/storefront/internal/formatter"
	"github.com/YusovID/storefront/internal/http-server/router"
	"github.com/YusovID/storefront/internal/notify/kafka"
	"github.com/YusovID/storefront/internal/processor/configevents"
	"github.com/YusovID/storefront/internal/storage/postgres"
	"github.com/YusovID/storefront/internal/storage/redis"
	"github.com/YusovID/storefront/lib/logger/sl"
	"github.com/YusovID/storefront/lib/logger/slogpretty"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	wg := &sync.WaitGroup{}

	cfg := config.MustLoad()

	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting storefront", slog.String("env", cfg.Env))

	storage, err := postgres.New(cfg.Postgres, log)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	log.Info("storage init successful")

	carts, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to init cache", sl.Err(err))
		os.Exit(1)
	}

	log.Info("cache init successful")

	store := adminconfig.New(ctx, storage,
		adminconfig.Defaults(cfg.Pricing, cfg.Delivery.Zones),
		log,
		adminconfig.WithCredentials(cfg.HTTPServer.AdminUser, cfg.HTTPServer.AdminPassword),
	)

	catalog := delivery.New(store)

	orchestrator, err := checkout.New(checkout.Deps{
		Rates:    store.Rates,
		Delivery: catalog,
		Logger:   log,
	})
	if err != nil {
		log.Error("failed to init checkout", sl.Err(err))
		os.Exit(1)
	}

	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Error("failed to init producer", sl.Err(err))
		os.Exit(1)
	}

	log.Info("producer init successful")

	dispatcher := formatter.NewDispatcher(
		cfg.WhatsApp.Destination,
		cfg.WhatsApp.BaseURL,
		cfg.WhatsApp.Timeout,
		log,
		producer.OrderSink(cfg.Kafka.OrdersTopic),
	)

	unsubscribe := store.Subscribe(producer.ConfigEvents(ctx, cfg.Kafka.ConfigTopic))
	defer unsubscribe()

	eventChan := make(chan *sarama.ConsumerMessage)
	eventCommit := make(chan *sarama.ConsumerMessage)

	// каждый экземпляр читает события конфигурации своей группой
	events, err := kafka.NewConsumer(cfg.Kafka, instanceGroup(cfg.Kafka.Consumer.GroupId), eventChan, eventCommit, log)
	if err != nil {
		log.Error("failed to init consumer", sl.Err(err))
		os.Exit(1)
	}

	log.Info("consumer init successful")

	reloader := configevents.New(store, eventChan, eventCommit, log)

	wg.Add(2)
	go events.ProcessMessages(ctx, cfg.Kafka.ConfigTopic, wg)
	go reloader.ProcessEvents(ctx, wg)

	srv := &http.Server{
		Addr: cfg.HTTPServer.Address,
		Handler: router.New(router.Deps{
			Log:          log,
			Sessions:     cart.NewRegistry(carts, store.Rates, log),
			Orchestrator: orchestrator,
			Dispatcher:   dispatcher,
			Delivery:     catalog,
			Admin:        store,
			Contact:      cfg.WhatsApp.Destination,
		}),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			cancel()
		}
	}()

	log.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigchan:
	case <-ctx.Done():
	}

	log.Info("stopping server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", sl.Err(err))
	}

	cancel()

	wg.Wait()

	log.Info("shutting down consumer")

	closers := []struct {
		name  string
		close func() error
	}{
		{"consumer", events.Close},
		{"producer", producer.Close},
		{"cache", carts.Close},
		{"storage", storage.Close},
	}

	for _, c := range closers {
		if err := c.close(); err != nil {
			log.Error("failed to close "+c.name, sl.Err(err))
		}
	}

	log.Info("storefront stopped")
}

func instanceGroup(prefix string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return prefix
	}

	return prefix + "-" + host
}

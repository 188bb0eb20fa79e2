// package main является точкой входа генератора заказов. Генератор
// эмулирует покупателей: каждый собирает случайную корзину, оформляет
// заказ по тем же правилам, что и витрина, и отправляет его в топик
// заказов Kafka. Работа завершается по SIGINT или SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/YusovID/storefront/internal/adminconfig"
	"github.com/YusovID/storefront/internal/cart"
	"github.com/YusovID/storefront/internal/checkout"
	"github.com/YusovID/storefront/internal/config"
	"github.com/YusovID/storefront/internal/delivery"
	"github.com/YusovID/storefront/internal/formatter"
	"github.com/YusovID/storefront/internal/notify/kafka"
	"github.com/YusovID/storefront/internal/storage/memory"
	cartGen "github.com/YusovID/storefront/lib/generator/cart"
	"github.com/YusovID/storefront/lib/logger/sl"
	"github.com/YusovID/storefront/lib/logger/slogpretty"
	wp "github.com/YusovID/storefront/lib/workerpool"
)

type generator struct {
	store        *adminconfig.Store
	catalog      *delivery.Catalog
	orchestrator *checkout.Orchestrator
	dispatcher   *formatter.Dispatcher
	maxLines     int
	log          *slog.Logger
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := config.MustLoad()

	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting order generator", slog.String("env", cfg.Env))

	p, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Error("failed to init producer", sl.Err(err))
		os.Exit(1)
	}
	log.Info("producer init successful")

	// генератор не трогает конфигурацию витрины и работает с тарифами
	// и зонами по умолчанию
	store := adminconfig.New(ctx, memory.New(), adminconfig.Defaults(cfg.Pricing, cfg.Delivery.Zones), log)
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

	g := &generator{
		store:        store,
		catalog:      catalog,
		orchestrator: orchestrator,
		dispatcher: formatter.NewDispatcher(
			cfg.WhatsApp.Destination,
			cfg.WhatsApp.BaseURL,
			cfg.WhatsApp.Timeout,
			log,
			p.OrderSink(cfg.Kafka.OrdersTopic),
		),
		maxLines: cfg.Generator.MaxLines,
		log:      log,
	}

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	wg := &sync.WaitGroup{}

	wg.Add(1)
	go g.run(ctx, cfg.Generator.Shoppers, cfg.Generator.Interval, wg)

	<-sigchan
	cancel()

	wg.Wait()

	log.Info("stopping producer")
	if err := p.Close(); err != nil {
		log.Error("failed to close producer", sl.Err(err))
	}
}

// run каждые interval запускает shoppers покупателей параллельно.
func (g *generator) run(ctx context.Context, shoppers int, interval time.Duration, wg *sync.WaitGroup) {
	defer wg.Done()

	const fn = "order-generator.run"
	log := g.log.With(slog.String("fn", fn))

	pool := wp.New(shoppers, g.shop)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping generating orders by context")
			return

		case <-ticker.C:
			pool.Create()

			batch := &sync.WaitGroup{}

			for i := range pool.Size() {
				batch.Add(1)

				go func(shopper int) {
					defer batch.Done()

					if err := pool.Handle(ctx, shopper); err != nil {
						log.Error("shopper failed", slog.Int("shopper", shopper), sl.Err(err))
					}
				}(i)
			}

			batch.Wait()
			pool.Wait()
		}
	}
}

func (g *generator) shop(ctx context.Context, shopper int) error {
	const fn = "order-generator.shop"

	basket := cart.Open(ctx, memory.New(), fmt.Sprintf("shopper:%d", shopper), g.store.Rates, g.log)

	for _, p := range cartGen.Picks(g.maxLines, g.store.Novelas()) {
		if _, err := basket.AddLine(ctx, p.Ref, p.PaymentMethod, p.Options()...); err != nil {
			return fmt.Errorf("%s: can't add line: %w", fn, err)
		}
	}

	form := g.orchestrator.Open()
	defer form.Close()

	order, err := form.Submit(ctx, basket, cartGen.Customer(g.catalog.ListOptions()))
	if err != nil {
		return fmt.Errorf("%s: can't submit order: %w", fn, err)
	}

	if _, err := g.dispatcher.Dispatch(ctx, order); err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}

	g.log.Debug("order generated",
		slog.String("order_id", order.OrderID),
		slog.Int64("grand_total", order.GrandTotal),
	)

	return nil
}

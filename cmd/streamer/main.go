package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/hub"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/stats"
	"main/internal/stream"
	"main/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("streamer: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "config.json", "path to JSON config")
	profileFlag := flag.String("profile", "", "pyroscope server address (optional)")
	flag.Parse()

	cfg, err := ops.Load(*configFlag)
	if err != nil {
		return err
	}

	if *profileFlag != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "market/streamer",
			ServerAddress:   *profileFlag,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := obs.NewMetrics()
	distribution := hub.New(metrics)

	books := book.NewEngine(cfg.PendingDeltaLimit)
	if err := books.Attach(distribution, cfg.SubscriberQueue); err != nil {
		return err
	}
	go books.Run()

	aggregates := stats.NewEngine()
	if err := aggregates.Attach(distribution, cfg.SubscriberQueue); err != nil {
		return err
	}
	go aggregates.Run()

	tape, err := distribution.Subscribe(cfg.SubscriberQueue)
	if err != nil {
		return err
	}
	go printTape(tape)

	manager, err := stream.Start(ctx, stream.Config{
		Endpoint:         cfg.Endpoint,
		Dialer:           transport.NewWebSocketDialer(),
		Hub:              distribution,
		Metrics:          metrics,
		Symbols:          cfg.Symbols,
		Backoff:          cfg.Backoff,
		RetryCeiling:     cfg.RetryCeiling,
		HeartbeatTimeout: cfg.HeartbeatTimeout,
	})
	if err != nil {
		return err
	}

	fatalErr := manager.Wait()
	distribution.Close()

	printSummary(metrics, aggregates, books)
	return fatalErr
}

func printTape(sub *hub.Subscriber) {
	for {
		event, ok := sub.Next()
		if !ok {
			return
		}
		switch ev := event.(type) {
		case model.Trade:
			fmt.Printf("trade  %s %s %s @ %s\n", ev.Symbol, ev.Side, ev.Quantity, ev.Price)
		case model.Quote:
			fmt.Printf("quote  %s bid %s x %s | ask %s x %s\n",
				ev.Symbol, ev.BidSize, ev.BidPrice, ev.AskSize, ev.AskPrice)
		case model.BookSnapshot:
			fmt.Printf("book   %s snapshot %d bids / %d asks\n", ev.Symbol, len(ev.Bids), len(ev.Asks))
		case model.Disconnected:
			fmt.Println("disconnected")
		case model.BookDelta, model.Heartbeat:
		}
	}
}

func printSummary(metrics *obs.Metrics, aggregates *stats.Engine, books *book.Engine) {
	snap := metrics.Snapshot()
	fmt.Printf("\nmessages=%d bytes=%d decodeFailures=%d overflows=%d connects=%d disconnects=%d\n",
		snap.MessagesReceived, snap.BytesReceived, snap.DecodeFailures,
		snap.QueueOverflows, snap.Connects, snap.Disconnects)

	for _, symbol := range aggregates.Symbols() {
		s, ok := aggregates.Snapshot(symbol)
		if !ok {
			continue
		}
		fmt.Printf("%s: trades=%d volume=%s vwap=%s high=%s low=%s\n",
			symbol, s.TradeCount, s.TotalVolume, s.VWAP.StringFixed(4), s.High, s.Low)
	}
	for _, symbol := range books.Symbols() {
		b, ok := books.Book(symbol)
		if !ok {
			continue
		}
		bid, okBid := b.BestBid()
		ask, okAsk := b.BestAsk()
		if okBid && okAsk {
			fmt.Printf("%s: book %s / %s (%s)\n", symbol, bid.Price, ask.Price, b.State())
		}
	}
}

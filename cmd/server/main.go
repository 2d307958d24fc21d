package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"docutrack/internal/classifier"
	dirhandler "docutrack/internal/directory/handler"
	dirmetrics "docutrack/internal/directory/metrics"
	"docutrack/internal/directory/seed"
	dirservice "docutrack/internal/directory/service"
	dochandler "docutrack/internal/document/handler"
	"docutrack/internal/document/lifecycle"
	docmetrics "docutrack/internal/document/metrics"
	docservice "docutrack/internal/document/service"
	notifhandler "docutrack/internal/notification/handler"
	notifmetrics "docutrack/internal/notification/metrics"
	"docutrack/internal/notification/publisher"
	notifservice "docutrack/internal/notification/service"
	"docutrack/internal/notification/worker"
	"docutrack/internal/platform/config"
	"docutrack/internal/platform/httpserver"
	"docutrack/internal/platform/logger"
	"docutrack/internal/platform/metrics"
	"docutrack/internal/session/actor"
	sessionhandler "docutrack/internal/session/handler"
	sessionservice "docutrack/internal/session/service"
	"docutrack/internal/session/token"
	httptransport "docutrack/internal/transport/http"
	"docutrack/pkg/platform/circuit"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// run wires every module and blocks until ctx is cancelled or a component
// fails.
func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.InfoContext(ctx, "starting docutrack", "config", cfg.String())
	if cfg.UsesDevSigningKey() {
		log.WarnContext(ctx, "using the development JWT signing key; set JWT_SIGNING_KEY in production")
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.SeedDefaults {
		if err := seed.Defaults(ctx, b.offices, b.users, log); err != nil {
			return fmt.Errorf("seed defaults: %w", err)
		}
	}

	pub, closePublisher, err := newPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	notifMetrics := notifmetrics.New()
	queue := worker.NewQueue(cfg.Kafka.BufferSize, notifMetrics)
	notifWorker := worker.NewWorker(pub, queue, log, notifMetrics)

	directory := dirservice.New(b.users, b.offices, b.documents,
		dirservice.WithLogger(log),
		dirservice.WithMetrics(dirmetrics.New()),
		dirservice.WithTx(b.tx),
	)
	notifications := notifservice.New(b.notifications, directory,
		notifservice.WithLogger(log),
		notifservice.WithMetrics(notifMetrics),
		notifservice.WithQueue(queue),
	)
	docOpts := []docservice.Option{
		docservice.WithLogger(log),
		docservice.WithMetrics(docmetrics.New()),
		docservice.WithTx(b.tx),
		docservice.WithEngine(lifecycle.NewEngine(cfg.HubOffice)),
		docservice.WithNotifier(notifications),
	}
	if cfg.Classifier.URL != "" {
		breaker := circuit.New("classifier", circuit.WithFailureThreshold(cfg.Classifier.FailureThreshold))
		docOpts = append(docOpts, docservice.WithClassifier(classifier.New(cfg.Classifier.URL, cfg.Classifier.Timeout,
			classifier.WithBreaker(breaker),
			classifier.WithLogger(log),
			classifier.WithMetrics(classifier.NewMetrics()),
		)))
	}
	documents := docservice.New(b.documents, directory, docOpts...)

	jwt := token.NewJWTService(cfg.Session.SigningKey, cfg.Session.Issuer)
	sessions := sessionservice.New(directory, jwt, b.revocations,
		sessionservice.WithLogger(log),
		sessionservice.WithSessionTTL(cfg.Session.TTL),
	)
	guards := actor.NewGuards(token.NewMiddlewareAdapter(jwt), sessions, directory, log)

	health := map[string]httptransport.HealthCheck{}
	if b.db != nil {
		health["postgres"] = b.db.PingContext
	}
	if b.redis != nil {
		health["redis"] = b.redis.Health
	}
	if kp, ok := pub.(*publisher.KafkaPublisher); ok {
		health["kafka"] = kp.Ping
	}

	router := httptransport.NewRouter(httptransport.Options{
		Logger:         log,
		Metrics:        metrics.New(),
		RequestTimeout: cfg.RequestTimeout,
		Health:         health,
	},
		sessionhandler.New(sessions, log, guards),
		dirhandler.New(directory, log, guards),
		dochandler.New(documents, log, guards),
		notifhandler.New(notifications, log, guards),
	)
	srv := httpserver.New(cfg.Addr, router, cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return notifWorker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

// newPublisher returns the Kafka publisher when brokers are configured and the
// log publisher otherwise.
func newPublisher(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (publisher.Publisher, func(), error) {
	if !cfg.Enabled() {
		log.InfoContext(ctx, "no kafka brokers configured; notification events are logged only")
		return publisher.NewLogPublisher(log), func() {}, nil
	}
	kp, err := publisher.NewKafkaPublisher(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka publisher: %w", err)
	}
	if err := kp.EnsureTopic(ctx, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		kp.Close()
		return nil, nil, fmt.Errorf("ensure topic %s: %w", cfg.NotificationsTopic, err)
	}
	log.InfoContext(ctx, "publishing notification events to kafka", "topic", cfg.NotificationsTopic)
	return kp, kp.Close, nil
}

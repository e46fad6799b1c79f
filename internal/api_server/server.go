package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/config"
	"github.com/draftforge/draftforge/internal/events"
	"github.com/draftforge/draftforge/internal/generation"
	"github.com/draftforge/draftforge/internal/genjobs"
	handlers "github.com/draftforge/draftforge/internal/handlers/v1alpha1"
	"github.com/draftforge/draftforge/internal/service"
	"github.com/draftforge/draftforge/internal/store"
	"github.com/draftforge/draftforge/pkg/metrics"
	"github.com/draftforge/draftforge/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

// New returns a new instance of a draftforge api server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	// pgx pool for the job queue
	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s",
		s.cfg.Database.Hostname,
		s.cfg.Database.User,
		s.cfg.Database.Password,
		s.cfg.Database.Port,
		s.cfg.Database.Name,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse pgx config: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer dbPool.Close()

	eventProducer, err := s.newEventProducer()
	if err != nil {
		return err
	}
	defer func() {
		_ = eventProducer.Close()
	}()

	producer := generation.NewHTTPProducer(
		s.cfg.Service.Generation.URL,
		s.cfg.Service.Generation.Token,
		s.cfg.Service.Generation.Timeout,
	)

	queueClient, err := genjobs.NewClient(ctx, dbPool, s.store, producer, eventProducer, genjobs.ClientConfig{
		Workers:            s.cfg.Service.Queue.Workers,
		SectionMaxAttempts: s.cfg.Service.Queue.SectionMaxAttempts,
		WorkerID:           s.listener.Addr().String(),
		Policy: genjobs.RetryPolicy{
			MaxAttempts: s.cfg.Service.Queue.MaxDeliveries,
			BaseDelay:   s.cfg.Service.Queue.BackoffBase,
			Multiplier:  s.cfg.Service.Queue.BackoffMultiplier,
			MaxDelay:    5 * time.Minute,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create queue client: %w", err)
	}

	if err := queueClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue client: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := queueClient.Stop(stopCtx); err != nil {
			zap.S().Named("api_server").Warnw("failed to stop queue client", "error", err)
		}
	}()

	zap.S().Named("api_server").Info("job queue initialized")

	h := handlers.NewServiceHandler(
		service.NewJobService(s.store, queueClient),
		service.NewDocumentService(s.store),
		service.NewMaterialService(s.store),
	)
	h.RegisterRoutes(router)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

// newEventProducer wires kafka when brokers are configured, and falls
// back to the stdout writer for local runs.
func (s *Server) newEventProducer() (*events.EventProducer, error) {
	kafka := s.cfg.Service.Kafka
	if len(kafka.Brokers) == 0 {
		return events.NewEventProducer(&events.StdoutWriter{}), nil
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = kafka.ClientID

	writer, err := events.NewKafkaWriter(kafka.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka writer: %w", err)
	}

	opts := []events.ProducerOptions{}
	if kafka.Topic != "" {
		opts = append(opts, events.WithOutputTopic(kafka.Topic))
	}

	return events.NewEventProducer(writer, opts...), nil
}

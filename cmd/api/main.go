package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"example.com/posecoach/internal/api"
	"example.com/posecoach/internal/auth"
	"example.com/posecoach/internal/config"
	"example.com/posecoach/internal/events"
	"example.com/posecoach/internal/pose"
	"example.com/posecoach/internal/practice"
	"example.com/posecoach/internal/recorder"
	"example.com/posecoach/internal/stream"
	httptransport "example.com/posecoach/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog := pose.DefaultCatalog()
	sessions := recorder.NewClient(cfg.SessionAPIURL, cfg.RecorderTimeout)

	streamOpts := []stream.Option{
		stream.WithAllowedOrigins(cfg.AllowedOrigins),
		stream.WithReadTimeout(cfg.StreamReadTimeout),
		stream.WithMaxSessions(cfg.MaxSessions),
		stream.WithLoopOptions(
			practice.WithTickInterval(cfg.HoldTick),
			practice.WithSubmitTimeout(cfg.RecorderTimeout),
		),
	}

	if cfg.PublishingEnabled() {
		producer := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.RecorderTimeout)
		defer producer.Close()

		var pubOpts []events.Option
		if cfg.SchemaRegistryURL != "" {
			pubOpts = append(pubOpts, events.WithSchemaRegistry(events.NewSchemaRegistryClient(cfg.SchemaRegistryURL, cfg.RecorderTimeout)))
		}
		publisher := events.NewPublisher(producer, cfg.HoldEventsTopic, pubOpts...)
		streamOpts = append(streamOpts, stream.WithPublisher(publisher))
		log.Printf("publishing hold events to %s via %v", cfg.HoldEventsTopic, cfg.KafkaBrokers)
	}

	mux := http.NewServeMux()
	api.NewHandler(catalog, func(token string) api.SessionHistory {
		return sessions.WithToken(token)
	}).RegisterRoutes(mux)
	stream.NewHandler(catalog, func(token string) recorder.Recorder {
		return sessions.WithToken(token)
	}, streamOpts...).RegisterRoutes(mux)

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/", authMiddleware.Wrap(mux))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:           cfg.HTTPAddress,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       ctx,
	}, corsHandler.Handler(logger(root)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("pose coach listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/readrack/magazine-service/internal/config"
	"github.com/readrack/magazine-service/internal/handlers"
	"github.com/readrack/magazine-service/internal/objectstore"
	"github.com/readrack/magazine-service/internal/service"
	"github.com/readrack/magazine-service/internal/store"
)

func main() {
	log := logrus.New()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Infof("starting magazine service on %s", cfg.Server.Address)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client, err := store.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatalf("can't connect to mongo: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	objects, err := objectstore.NewClient(objectstore.Config{
		Endpoint:    cfg.S3.Endpoint,
		AccessKey:   cfg.S3.AccessKey,
		SecretKey:   cfg.S3.SecretKey,
		IssueBucket: cfg.S3.IssueBucket,
		CoverBucket: cfg.S3.CoverBucket,
		PublicHost:  cfg.S3.PublicHost,
		UseSSL:      cfg.S3.UseSSL,
	}, log)
	if err != nil {
		log.Fatalf("failed to create object storage client: %v", err)
	}

	issueRepo := store.NewIssueRepository(db, log)
	subRepo := store.NewSubscriptionRepository(db, log)

	issueSvc := service.NewIssueService(issueRepo, objects, cfg.S3.IssueBucket, cfg.S3.CoverBucket, log)
	listingSvc := service.NewListingService(issueRepo, subRepo, log)
	subSvc := service.NewSubscriptionService(subRepo, log)

	h := handlers.NewHandler(issueSvc, listingSvc, subSvc, log)

	r := chi.NewRouter()
	// middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(log))

	r.Route("/issue-service", func(r chi.Router) {
		r.Get("/getIssues", h.GetIssues)
		r.Get("/getTotal", h.GetTotal)
		r.Get("/getIssue/{issueId}", h.GetIssue)
		r.Post("/createIssue", h.CreateIssue)
		r.Put("/updateIssue", h.UpdateIssue)
		r.Put("/updateViews", h.UpdateViews)
		r.Delete("/deleteIssue/{issueId}", h.DeleteIssue)

		r.Get("/getSubscriptions", h.GetSubscriptions)
		r.Post("/createSubscription", h.CreateSubscription)
		r.Put("/updateSubscription", h.UpdateSubscription)
	})

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Info("server stopped")
}

func loggingMiddleware(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := middleware.GetReqID(r.Context())
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"req_id": rid,
				"method": r.Method,
				"path":   r.URL.Path,
				"dur_ms": time.Since(start).Milliseconds(),
			}).Info("handled request")
		})
	}
}

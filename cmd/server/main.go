// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/contoso/storefront/internal/config"
	"github.com/contoso/storefront/internal/docstore"
	"github.com/contoso/storefront/internal/events"
	"github.com/contoso/storefront/internal/models"
	"github.com/contoso/storefront/internal/router"
	"github.com/contoso/storefront/internal/services"
	"github.com/contoso/storefront/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	store, err := newDocStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize document store")
	}

	objects, err := newObjectStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize object storage")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.RedisAddr != "" {
		redisPublisher := events.NewRedisPublisher(cfg.Events.RedisAddr, cfg.Events.RedisPassword, cfg.Events.RedisDB)
		defer redisPublisher.Close()
		publisher = redisPublisher
	}

	var allocator services.IDAllocator
	switch cfg.Allocator.Strategy {
	case "counter":
		allocator = services.NewCounterAllocator(store)
	default:
		allocator = services.NewMaxScanAllocator(store)
	}

	svc := router.Services{
		Products: services.NewProductService(store, publisher, cfg.Events.Topic),
		Orders:   services.NewOrderService(store, allocator),
		Media: services.NewMediaService(objects, services.MediaConfig{
			PlaceholderObject: cfg.Media.PlaceholderObject,
			URLTTL:            time.Duration(cfg.Media.SignedURLTTLMins) * time.Minute,
			MetadataTimeout:   time.Duration(cfg.Media.MetadataTimeoutMS) * time.Millisecond,
		}),
		Users: services.NewUserService(store),
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.Initialize(svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}
	logrus.Info("Server exited")
}

func newDocStore(cfg *config.Config) (docstore.Client, error) {
	if cfg.Store.RqliteURL == "" {
		logrus.Warn("RQLITE_URL not set, using in-memory document store")
		return docstore.NewMemoryStore(), nil
	}
	store, err := docstore.OpenRqlite(cfg.Store.RqliteURL, cfg.Store.Consistency)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx,
		models.CollectionUsers,
		models.CollectionProducts,
		models.CollectionOrders,
		models.CollectionOrderItems,
		"counters",
	); err != nil {
		return nil, err
	}
	return store, nil
}

func newObjectStore(cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.AWS.AccessKeyID == "" {
		logrus.Warn("AWS credentials not set, using in-memory object store")
		return storage.NewMemoryStore(), nil
	}
	return storage.NewS3Store(storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Bucket:          cfg.AWS.S3Bucket,
	})
}

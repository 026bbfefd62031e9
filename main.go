package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"micmap/db"
	"micmap/filemgr"
	"micmap/globals"
	"micmap/jobs"
	"micmap/ratelim"
	"micmap/routes"
	"micmap/sources"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, duration)
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(h *jobs.Handler, m *routes.MaintenanceHandler, assetRoot string) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	routes.AddVenueRoutes(router)
	routes.AddEventRoutes(router)
	routes.AddJobRoutes(router, h)
	routes.AddMaintenanceRoutes(router, m)
	routes.AddStaticRoutes(router, assetRoot)

	return router
}

// assetBackend picks the storage backend from the environment: the local root
// by default, the bucket gateway when ASSET_BACKEND=remote.
func assetBackend(root string) filemgr.Backend {
	if os.Getenv("ASSET_BACKEND") == "remote" {
		host := os.Getenv("BUCKET_HOST")
		bucket := os.Getenv("BUCKET_NAME")
		if host == "" || bucket == "" {
			log.Fatal("ASSET_BACKEND=remote requires BUCKET_HOST and BUCKET_NAME")
		}
		return filemgr.NewRemoteBackend(host, bucket)
	}
	return filemgr.NewLocalBackend(root)
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	// read port
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	if err := db.EnsureIndexes(globals.Ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	catalogPath := os.Getenv("SOURCES_FILE")
	if catalogPath == "" {
		catalogPath = "config/sources.yaml"
	}
	catalog, err := sources.LoadCatalog(catalogPath)
	if err != nil {
		log.Fatalf("Failed to load source catalog: %v", err)
	}
	if err := sources.Seed(globals.Ctx, catalog); err != nil {
		log.Fatalf("Failed to seed sources: %v", err)
	}
	registry := sources.NewRegistry(catalog)

	assetRoot := os.Getenv("ASSET_ROOT")
	if assetRoot == "" {
		assetRoot = "static"
	}
	assets := filemgr.NewStore(assetBackend(assetRoot))

	crawlDelay := 2 * time.Second
	if raw := os.Getenv("CRAWL_DELAY_SECONDS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			crawlDelay = time.Duration(n) * time.Second
		}
	}
	limiter := ratelim.NewCrawlLimiter(crawlDelay)

	pipeline := jobs.NewPipeline(registry, assets, limiter)

	workerCount := 4
	if raw := os.Getenv("WORKER_COUNT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			workerCount = n
		}
	}
	workCtx, stopWorkers := context.WithCancel(context.Background())
	jobs.StartWorkers(workCtx, pipeline, workerCount)
	jobs.StartScheduler(workCtx, registry)

	router := setupRouter(
		&jobs.Handler{Pipeline: pipeline},
		&routes.MaintenanceHandler{Assets: assets},
		assetRoot,
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"}, // lock down in production
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	handler := loggingMiddleware(corsHandler)

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("Stopping job workers...")
		stopWorkers()
	})

	go func() {
		log.Printf("Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	if err := db.Client.Disconnect(ctx); err != nil {
		log.Printf("Mongo disconnect: %v", err)
	}

	log.Println("Server stopped cleanly")
}

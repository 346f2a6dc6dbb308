package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"recoengine/internal/embedding"
	"recoengine/internal/httputil"
	"recoengine/internal/ratelimit"
	"recoengine/internal/recoengine"
	"recoengine/internal/store"
)

func main() {
	cfg := loadConfig()

	if !isInsecureDefaultsAllowed() {
		var insecure []string
		for envKey, placeholder := range defaultSecrets {
			if getEnv(envKey, placeholder) == placeholder {
				insecure = append(insecure, envKey)
			}
		}
		if len(insecure) > 0 {
			log.Fatalf("FATAL: the following secrets still use insecure defaults: %v\n"+
				"Set them in your environment or pass ALLOW_INSECURE_DEFAULTS=true for local development.",
				insecure)
		}
	} else {
		log.Println("WARNING: ALLOW_INSECURE_DEFAULTS=true -- running with default secrets (development mode)")
	}

	// --- Database ---
	var dialect store.Dialect
	var rawDB *sql.DB

	switch strings.ToLower(cfg.DBDriver) {
	case "postgres", "postgresql":
		dialect = store.DialectPostgres
		if cfg.DBURL == "" {
			log.Fatal("DB_URL is required when DB_DRIVER=postgres")
		}
		var err error
		rawDB, err = sql.Open("pgx", cfg.DBURL)
		if err != nil {
			log.Fatalf("failed to open postgres: %v", err)
		}
		rawDB.SetMaxOpenConns(10)
		rawDB.SetMaxIdleConns(5)
		rawDB.SetConnMaxLifetime(5 * time.Minute)

		if err := store.RunMigrations(rawDB, dialect); err != nil {
			log.Fatalf("failed to init postgres schema: %v", err)
		}
		log.Println("Using Postgres database")

	default:
		dialect = store.DialectSQLite
		var err error
		rawDB, err = sql.Open("sqlite", cfg.DBPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		rawDB.SetMaxOpenConns(4)
		rawDB.SetMaxIdleConns(4)
		rawDB.SetConnMaxLifetime(0)

		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA foreign_keys=ON",
			"PRAGMA synchronous=NORMAL",
		} {
			if _, err := rawDB.Exec(pragma); err != nil {
				log.Fatalf("pragma failed (%s): %v", pragma, err)
			}
		}

		if err := store.RunMigrations(rawDB, dialect); err != nil {
			log.Fatalf("failed to init schema: %v", err)
		}
		log.Println("Using SQLite database")
	}

	compatDB := store.NewCompatDB(rawDB, dialect)
	defer compatDB.Close()

	repo := store.NewRepository(compatDB)
	enc := embedding.New(newEmbeddingModel(cfg.EmbeddingModelPath))

	engine := recoengine.New(compatDB, repo, enc,
		newDemoScreenContent(),
		newDemoBooks(),
		store.NewShortVideoLibraryAdapter(repo),
	)
	a := &api{engine: engine, repo: repo}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			req.Body = http.MaxBytesReader(w, req.Body, httputil.DefaultBodyLimit)
			next.ServeHTTP(w, req)
		})
	})

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, req)
		})
	})

	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"streaming_country": cfg.StreamingCountry,
		})
	})

	genLimiter := ratelimit.New(6, time.Minute)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(cfg.JWTSecret))
		r.Get("/api/recommendations", a.handleListRecommendations)
		r.Post("/api/recommendations/{id}/dismiss", a.handleDismiss)
		r.Post("/api/recommendations/mark-added", a.handleMarkAdded)

		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(genLimiter))
			r.Post("/api/recommendations/generate", a.handleGenerate)
			r.Get("/api/recommendations/generate/stream", a.handleGenerateStream)
			r.Get("/api/recommendations/complete/stream", a.handleCompleteStream)
		})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("recoengine listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	log.Println("server shut down")
}

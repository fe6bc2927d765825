// cmd/api/main.go
// Main entry point for the application.
// This file bootstraps all components and starts the server.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	// Internal packages
	"github.com/multishowcase/showcase-backend/internal/auth"
	"github.com/multishowcase/showcase-backend/internal/common/database"
	"github.com/multishowcase/showcase-backend/internal/common/metrics"
	"github.com/multishowcase/showcase-backend/internal/config"
	"github.com/multishowcase/showcase-backend/internal/groups"
	"github.com/multishowcase/showcase-backend/internal/posts"
	"github.com/multishowcase/showcase-backend/internal/realtime"
	"github.com/multishowcase/showcase-backend/internal/reports"
	"github.com/multishowcase/showcase-backend/internal/storage"
	"github.com/multishowcase/showcase-backend/internal/users"
)

var startTime = time.Now()

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚀 Starting Showcase Social API")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// 2. Load configuration
	log.Println("\n📋 Step 2: Loading configuration...")
	cfg := config.Load()
	log.Printf("✅ Configuration loaded")

	// 3. Validate configuration
	log.Println("\n✔️  Step 3: Validating configuration...")
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed:", err)
	}
	log.Println("✅ Configuration is valid")

	// 4. Connect to PostgreSQL
	log.Println("\n🗄️  Step 4: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDB(database.PostgresConfig{URL: cfg.DatabaseURL})
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL successfully")

	// 5. Connect to Redis (optional)
	log.Println("\n📮 Step 5: Connecting to Redis...")
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable (%v), continuing without claims cache", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("✅ Connected to Redis successfully")
		}
	} else {
		log.Println("⚠️  Redis URL not configured, skipping Redis connection")
	}

	// 6. Run database migrations
	log.Println("\n🔨 Step 6: Running database migrations...")
	if err := runMigrations(db); err != nil {
		log.Printf("❌ Migration error: %v", err)
		log.Fatal("Failed to run migrations")
	}
	log.Println("✅ Database migrations completed")

	// 7. Initialize storage backend
	log.Println("\n📦 Step 7: Initializing storage backend...")
	var store storage.Storage
	if cfg.UseS3 {
		store, err = storage.NewS3Storage(cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			log.Fatal("❌ Failed to initialize S3 storage:", err)
		}
		log.Println("   ✅ Using S3 for media storage")
	} else {
		store, err = storage.NewLocalStorage(cfg.LocalUploadDir, cfg.BaseURL)
		if err != nil {
			log.Fatal("❌ Failed to initialize local storage:", err)
		}
		log.Println("   ✅ Using local storage for media")
	}

	// 8. Initialize authentication
	log.Println("\n🔐 Step 8: Initializing authentication...")
	var verifier auth.Verifier
	var provider *auth.IdentityProvider
	if cfg.CognitoConfigured() {
		cognitoVerifier, err := auth.NewCognitoVerifier(cfg.CognitoRegion, cfg.CognitoUserPoolID, cfg.CognitoClientID)
		if err != nil {
			log.Fatal("❌ Failed to initialize Cognito verifier:", err)
		}
		defer cognitoVerifier.Close()
		verifier = cognitoVerifier

		provider, err = auth.NewIdentityProvider(cfg.CognitoRegion, cfg.CognitoUserPoolID, cfg.CognitoClientID, cfg.CognitoClientSecret)
		if err != nil {
			log.Fatal("❌ Failed to initialize Cognito client:", err)
		}
		log.Println("   ✅ Using Cognito user pool", cfg.CognitoUserPoolID)
	} else {
		verifier = auth.NewDevVerifier()
		log.Println("   ⚠️  Cognito not configured, using development identity (non-production only)")
	}

	claimsCache := auth.NewClaimsCache(redisClient, cfg.ClaimsCacheTTL)
	log.Println("✅ Authentication initialized")

	// 9. Initialize Users module
	log.Println("\n👤 Step 9: Initializing Users module...")
	usersRepo := users.NewRepository(db)
	var pool users.IdentityAdmin
	if provider != nil {
		pool = provider
	}
	usersService := users.NewService(usersRepo, store, pool, cfg.PresignTTL)
	usersHandler := users.NewHandler(usersService)

	// Every verified request upserts its local user row through the middleware.
	authMiddleware := auth.NewMiddleware(verifier, claimsCache, usersService)
	log.Println("✅ Users module initialized")

	// 10. Initialize Groups module
	log.Println("\n👥 Step 10: Initializing Groups module...")
	groupsRepo := groups.NewRepository(db)
	groupsService := groups.NewService(groupsRepo)
	groupsHandler := groups.NewHandler(groupsService, usersService)
	log.Println("✅ Groups module initialized")

	// 11. Initialize real-time broadcast
	log.Println("\n📡 Step 11: Initializing broadcast channel...")
	broadcaster := realtime.NewBroadcaster()
	sseHandler := realtime.NewSSEHandler(broadcaster, cfg.HeartbeatInterval)
	wsHandler := realtime.NewWSHandler(broadcaster)
	log.Println("✅ Broadcast channel initialized")

	// 12. Initialize Posts module
	log.Println("\n📝 Step 12: Initializing Posts module...")
	postsRepo := posts.NewRepository(db)
	postsService := posts.NewService(postsRepo, store, broadcaster, groupsService, cfg.FeedDefaultLimit, cfg.FeedMaxLimit)
	postsHandler := posts.NewHandler(postsService, usersService)
	log.Println("✅ Posts module initialized")

	// 13. Initialize Reports module
	log.Println("\n🛡️  Step 13: Initializing Reports module...")
	reportsRepo := reports.NewRepository(db)
	reportsHandler := reports.NewHandler(reportsRepo, usersService)
	log.Println("✅ Reports module initialized")

	// 14. Setup routes
	log.Println("\n🛣️  Step 14: Setting up routes...")
	router := mux.NewRouter()

	// Static files for uploads
	if !cfg.UseS3 {
		router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/",
				http.FileServer(http.Dir(cfg.LocalUploadDir))))
		log.Println("   ✅ Static file server configured")
	}

	// Health check and metrics
	router.HandleFunc("/health", healthCheck(broadcaster)).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/api", apiInfo).Methods("GET")

	authHandler := auth.NewHandler(provider, usersService, cfg.IsProduction())
	auth.RegisterRoutes(router, authHandler, authMiddleware)
	log.Println("   ✅ Auth routes registered")

	users.RegisterRoutes(router, usersHandler, authMiddleware)
	log.Println("   ✅ Users routes registered")

	posts.RegisterRoutes(router, postsHandler, authMiddleware)
	log.Println("   ✅ Posts routes registered")

	groups.RegisterRoutes(router, groupsHandler, authMiddleware)
	log.Println("   ✅ Groups routes registered")

	reports.RegisterRoutes(router, reportsHandler, authMiddleware)
	log.Println("   ✅ Reports routes registered")

	realtime.RegisterRoutes(router, sseHandler, wsHandler, authMiddleware)
	log.Println("   ✅ Event stream routes registered")

	// Add middleware
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)
	router.Use(metrics.Middleware)

	// 15. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // long-lived SSE streams manage their own lifetime
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Println("\n========================================")
		log.Printf("🚀 Server starting on http://localhost%s", srv.Addr)
		log.Printf("🌍 Environment: %s", cfg.Environment)
		log.Println("========================================")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n⚠️  Shutdown signal received...")

	log.Println("   - Closing broadcast channel...")
	broadcaster.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server forced to shutdown:", err)
	}

	log.Println("✅ Server exited gracefully")
}

// runMigrations executes database migrations
func runMigrations(db *sqlx.DB) error {
	log.Println("   - Creating/updating tables...")

	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			cognito_sub VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(100) UNIQUE NOT NULL,
			email VARCHAR(255) NOT NULL,
			display_name VARCHAR(100),
			bio TEXT,
			avatar_url TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS groups (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) UNIQUE NOT NULL,
			description TEXT,
			owner_id UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			author_id UUID NOT NULL REFERENCES users(id),
			title VARCHAR(255),
			body TEXT,
			category VARCHAR(50),
			status VARCHAR(20) NOT NULL DEFAULT 'published'
				CHECK (status IN ('published', 'unpublished')),
			group_id UUID REFERENCES groups(id),
			published_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS post_media (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			media_type VARCHAR(20) NOT NULL CHECK (media_type IN ('image', 'video', 'link')),
			order_index INTEGER NOT NULL DEFAULT 0,
			storage_key TEXT NOT NULL DEFAULT '',
			storage_url TEXT NOT NULL,
			original_filename VARCHAR(255),
			file_size BIGINT DEFAULT 0,
			content_type VARCHAR(100),
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id),
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS likes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (post_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS follows (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			follower_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			following_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (follower_id, following_id),
			CHECK (follower_id <> following_id)
		)`,

		`CREATE TABLE IF NOT EXISTS group_members (
			group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joined_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (group_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS group_join_requests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'approved', 'rejected')),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			responded_at TIMESTAMPTZ,
			UNIQUE (group_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS reports (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			reporter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			report_type VARCHAR(20) NOT NULL CHECK (report_type IN ('post', 'user', 'comment', 'group')),
			target_id UUID NOT NULL,
			reason TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'open'
				CHECK (status IN ('open', 'reviewed', 'dismissed', 'actioned')),
			responded_by UUID REFERENCES users(id),
			responded_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (reporter_id, report_type, target_id)
		)`,

		`CREATE TABLE IF NOT EXISTS admin_actions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			admin_id UUID NOT NULL REFERENCES users(id),
			action_type VARCHAR(50) NOT NULL,
			target_type VARCHAR(20) NOT NULL,
			target_id UUID NOT NULL,
			report_id UUID REFERENCES reports(id),
			notes TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_posts_feed ON posts ((COALESCE(published_at, created_at)) DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_author ON posts (author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_group ON posts (group_id) WHERE group_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id)`,
		`CREATE INDEX IF NOT EXISTS idx_likes_post ON likes (post_id)`,
		`CREATE INDEX IF NOT EXISTS idx_follows_follower ON follows (follower_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("📥 %s %s from %s (%v)", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthCheck returns server health status
func healthCheck(broadcaster *realtime.Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"status":         "healthy",
			"timestamp":      time.Now().Format(time.RFC3339),
			"uptime":         time.Since(startTime).String(),
			"active_streams": broadcaster.SubscriberCount(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// apiInfo returns API information
func apiInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{
		"name": "Showcase Social API",
		"version": "1.0.0",
		"status": "running",
		"endpoints": {
			"health": "GET /health",
			"metrics": "GET /metrics",
			"auth": {
				"signup": "POST /api/auth/signup",
				"confirm": "POST /api/auth/confirm",
				"login": "POST /api/auth/login",
				"logout": "POST /api/auth/logout",
				"session": "GET /api/auth/session"
			},
			"feed": {
				"feed": "GET /api/feed",
				"explore": "GET /api/explore"
			},
			"posts": {
				"create": "POST /api/posts",
				"get": "GET /api/posts/{id}",
				"delete": "DELETE /api/posts/{id}",
				"like": "POST /api/posts/{id}/like",
				"unlike": "DELETE /api/posts/{id}/like",
				"comments": "GET /api/posts/{id}/comments"
			},
			"groups": {
				"list": "GET /api/groups",
				"create": "POST /api/groups",
				"join": "POST /api/groups/{id}/join",
				"leave": "POST /api/groups/{id}/leave"
			},
			"events": {
				"sse": "GET /api/events",
				"websocket": "GET /api/events/ws"
			}
		}
	}`))
}

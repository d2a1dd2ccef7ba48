package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/api"
	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/config"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/models"
	"github.com/rpupo63/portfolio-cms/ratelimit"
	"github.com/rpupo63/portfolio-cms/services"
	"github.com/rpupo63/portfolio-cms/storage"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	log.Info().Msg("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx := context.Background()
	c := config.New()

	if prefix := config.GetString(c, "SSM_PARAMETER_PATH", ""); prefix != "" {
		client, err := config.NewSSMClient(ctx, config.GetString(c, "AWS_REGION", ""))
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating SSM client")
		}
		values, err := config.LoadSSM(ctx, client, prefix)
		if err != nil {
			log.Fatal().Err(err).Str("path", prefix).Msg("Error loading SSM parameters")
		}
		c.Merge(values)
		log.Info().Int("count", len(values)).Str("path", prefix).Msg("Loaded SSM parameters")
	}

	db, err := database.Open(database.OpenOptions{
		DSN:           databaseURL(c),
		ReplicaDSN:    config.GetString(c, "DATABASE_REPLICA_URL", ""),
		SlowThreshold: config.GetSeconds(c, "DB_SLOW_QUERY_SECONDS", 10),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// If generating models, run generation and exit
	if config.GetBool(c, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating models and query helpers...")
		models.GenerateModels(db)
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		log.Info().Msg("Generating column mismatch report...")
		models.GenerateColumnMismatchReportStandalone(db)
		return
	}

	if config.GetBool(c, "AUTO_MIGRATE", false) {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Error migrating database")
		}
		log.Info().Msg("Database migrated")
	}

	currentDB := database.New(db)

	deps, err := buildDependencies(ctx, c, currentDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing services")
	}

	errChannel := make(chan error, 2)

	server, err := api.NewServer(c, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeRateLimitCounters(purgeCtx, currentDB, config.GetSeconds(c, "RATE_LIMIT_WINDOW_SECONDS", 60))

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

func buildDependencies(ctx context.Context, c config.Config, db database.Database) (api.Dependencies, error) {
	tokens, err := auth.NewTokens(config.GetString(c, "JWT_SECRET", ""), config.GetString(c, "JWT_ISSUER", ""))
	if err != nil {
		return api.Dependencies{}, err
	}

	limiter := ratelimit.NewFixedWindow(db.RateLimitRepo(),
		ratelimit.WithLimit(config.GetInt(c, "RATE_LIMIT_MAX", ratelimit.DefaultLimit)),
		ratelimit.WithWindow(config.GetSeconds(c, "RATE_LIMIT_WINDOW_SECONDS", 60)),
	)
	guard := services.NewGuard(limiter)

	pages := cache.NewPageCache(config.GetSeconds(c, "PAGE_CACHE_TTL_SECONDS", 300))
	invalidators := cache.Multi{pages}
	if url := config.GetString(c, "REVALIDATE_URL", ""); url != "" {
		webhook := cache.NewWebhook(url, config.GetString(c, "REVALIDATE_SECRET", ""), &http.Client{})
		invalidators = append(invalidators, webhook)
	}

	var store storage.ObjectStore
	if bucket := config.GetString(c, "S3_BUCKET", ""); bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:        bucket,
			Region:        config.GetString(c, "AWS_REGION", ""),
			Endpoint:      config.GetString(c, "S3_ENDPOINT", ""),
			PublicBaseURL: config.GetString(c, "S3_PUBLIC_BASE_URL", ""),
		})
		if err != nil {
			return api.Dependencies{}, err
		}
		store = s3Store
	} else {
		log.Warn().Msg("S3_BUCKET not set, uploads are kept in memory")
		store = storage.NewMemoryStore(config.GetString(c, "S3_PUBLIC_BASE_URL", "http://localhost/uploads"))
	}

	return api.Dependencies{
		Database:         db,
		Posts:            services.NewPostService(db, guard, invalidators),
		Categories:       services.NewCategoryService(db, guard, invalidators),
		Uploads:          services.NewUploadService(db, guard, store, invalidators),
		Books:            services.NewBookService(db, guard, invalidators),
		Courses:          services.NewCourseService(db, guard, invalidators),
		Settings:         services.NewSettingsService(db, guard, invalidators),
		Tokens:           tokens,
		PageCache:        pages,
		RevalidateSecret: config.GetString(c, "REVALIDATE_SECRET", ""),
	}, nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles a DSN from the
// SUPABASE_DB_* settings.
func databaseURL(c config.Config) string {
	if url := config.GetString(c, "DATABASE_URL", ""); url != "" {
		return url
	}
	host := config.GetString(c, "SUPABASE_DB_HOST", "")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
		host,
		config.GetString(c, "SUPABASE_DB_USER", ""),
		config.GetString(c, "SUPABASE_DB_PASSWORD", ""),
		config.GetString(c, "SUPABASE_DB_NAME", ""),
		config.GetString(c, "SUPABASE_DB_PORT", "5432"),
	)
}

// purgeRateLimitCounters deletes expired rate limit windows until ctx ends.
func purgeRateLimitCounters(ctx context.Context, db database.Database, window time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			purged, err := db.RateLimitRepo().PurgeBefore(ctx, now.Add(-window))
			if err != nil {
				log.Warn().Err(err).Msg("Failed to purge rate limit counters")
				continue
			}
			log.Debug().Int64("purged", purged).Msg("Purged rate limit counters")
		}
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}

package database

import (
	"context"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

type Database struct {
	db            *gorm.DB
	postRepo      *PostRepo
	postTagRepo   *PostTagRepo
	revisionRepo  *RevisionRepo
	categoryRepo  *CategoryRepo
	uploadRepo    *UploadRepo
	bookRepo      *BookRepo
	courseRepo    *CourseRepo
	settingsRepo  *SettingsRepo
	rateLimitRepo *RateLimitRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:            db,
		postRepo:      NewPostRepo(db),
		postTagRepo:   NewPostTagRepo(db),
		revisionRepo:  NewRevisionRepo(db),
		categoryRepo:  NewCategoryRepo(db),
		uploadRepo:    NewUploadRepo(db),
		bookRepo:      NewBookRepo(db),
		courseRepo:    NewCourseRepo(db),
		settingsRepo:  NewSettingsRepo(db),
		rateLimitRepo: NewRateLimitRepo(db),
	}
}

// OpenOptions describes how to reach the primary and the optional read replica.
type OpenOptions struct {
	DSN           string
	ReplicaDSN    string
	SlowThreshold time.Duration
}

// Open connects to postgres. Reads are routed to the replica when one is configured.
func Open(opts OpenOptions) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, errs.NewConfigMissingError("DATABASE_URL")
	}
	if opts.SlowThreshold == 0 {
		opts.SlowThreshold = 10 * time.Second
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  opts.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errs.NewServiceUnavailableError("database", err)
	}

	if opts.ReplicaDSN != "" {
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{
				DSN:                  opts.ReplicaDSN,
				PreferSimpleProtocol: true,
			})},
			Policy: dbresolver.RandomPolicy{},
		})
		if err := db.Use(resolver); err != nil {
			return nil, errs.NewServiceUnavailableError("database replica", err)
		}
	}

	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, errs.NewServiceUnavailableError("database", err)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// Transaction runs fn against a Database bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (d Database) Transaction(ctx context.Context, fn func(tx Database) error) error {
	return d.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// Ping checks that the primary is reachable.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Accessor methods for each repository

func (d Database) PostRepo() *PostRepo {
	return d.postRepo
}

func (d Database) PostTagRepo() *PostTagRepo {
	return d.postTagRepo
}

func (d Database) RevisionRepo() *RevisionRepo {
	return d.revisionRepo
}

func (d Database) CategoryRepo() *CategoryRepo {
	return d.categoryRepo
}

func (d Database) UploadRepo() *UploadRepo {
	return d.uploadRepo
}

func (d Database) BookRepo() *BookRepo {
	return d.bookRepo
}

func (d Database) CourseRepo() *CourseRepo {
	return d.courseRepo
}

func (d Database) SettingsRepo() *SettingsRepo {
	return d.settingsRepo
}

func (d Database) RateLimitRepo() *RateLimitRepo {
	return d.rateLimitRepo
}

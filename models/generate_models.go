package models

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Column mismatch report

Lists database columns that no model field maps to. Run with
GENERATE_COLUMN_REPORT=true to print it without migrating, or with
GENERATE_MODELS=true to migrate, print it and regenerate the query helpers
under ./generated.

Example output:
=== COLUMN MISMATCH REPORT ===
--- Table: blog_posts ---
Found 1 columns not accounted for in model:
  - legacy_cover_url

--- Table: blog_post_revisions ---
All columns are accounted for in the model.
*/

// All lists every model in dependency order, ready for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Post{},
		&PostTag{},
		&Revision{},
		&Upload{},
		&UploadReference{},
		&Book{},
		&Course{},
		&ProfileSettings{},
		&RateLimitCounter{},
	}
}

func GenerateModels(db *gorm.DB) {
	// First, ensure the database is ready
	if err := db.Exec("SELECT 1").Error; err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	// Set up verbose logging for migration
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             0,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)
	db = db.Session(&gorm.Session{
		Logger: newLogger,
		// Skip data validation during migration
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})

	// Use GORM's database connection
	g.UseDB(db)

	// Specify models for which to generate code
	g.ApplyBasic(
		Category{},
		Post{},
		PostTag{},
		Revision{},
		Upload{},
		UploadReference{},
		Book{},
		Course{},
		ProfileSettings{},
		RateLimitCounter{},
	)

	fmt.Println("Starting database migration...")

	// Create a new session for migration with specific settings
	migrateDB := db.Session(&gorm.Session{
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
		Logger:                 newLogger,
	})

	// Migrate all models
	fmt.Println("Migrating models...")
	if err := migrateDB.AutoMigrate(All()...); err != nil {
		fmt.Printf("Error during models migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Database migration completed successfully!")

	// Generate column mismatch report
	GenerateColumnMismatchReport(db)

	// Execute the code generation
	g.Execute()
	fmt.Println("Model generation complete!")
}

// GenerateColumnMismatchReport generates a report of database columns that aren't accounted for in Go models
func GenerateColumnMismatchReport(db *gorm.DB) {
	fmt.Println("=== COLUMN MISMATCH REPORT ===")
	fmt.Println("Generating report of database columns not accounted for in Go models...")

	// Define model mappings (table name -> struct type)
	modelMappings := map[string]interface{}{
		"blog_categories":     Category{},
		"blog_posts":          Post{},
		"blog_post_tags":      PostTag{},
		"blog_post_revisions": Revision{},
		"uploads":             Upload{},
		"upload_references":   UploadReference{},
		"books":               Book{},
		"courses":             Course{},
		"profile_settings":    ProfileSettings{},
		"rate_limit_counters": RateLimitCounter{},
	}

	totalMismatches := 0

	for tableName, modelStruct := range modelMappings {
		fmt.Printf("\n--- Table: %s ---\n", tableName)

		// Get database columns
		dbColumns, err := getTableColumns(db, tableName)
		if err != nil {
			if strings.Contains(err.Error(), "does not exist") {
				fmt.Printf("Table does not exist yet (will be created during migration)\n")
			} else {
				fmt.Printf("Error getting columns for table %s: %v\n", tableName, err)
			}
			continue
		}

		// Get model fields
		modelFields := getModelFields(modelStruct)

		// Find mismatches
		mismatches := findColumnMismatches(dbColumns, modelFields)

		if len(mismatches) > 0 {
			fmt.Printf("Found %d columns not accounted for in model:\n", len(mismatches))
			for _, col := range mismatches {
				fmt.Printf("  - %s\n", col)
			}
			totalMismatches += len(mismatches)
		} else {
			fmt.Println("All columns are accounted for in the model.")
		}
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Total mismatched columns across all tables: %d\n", totalMismatches)
}

// getTableColumns retrieves column names from a database table
func getTableColumns(db *gorm.DB, tableName string) ([]string, error) {
	var columns []string
	query := `
		SELECT column_name 
		FROM information_schema.columns 
		WHERE table_name = ? 
		AND table_schema = CURRENT_SCHEMA()
		ORDER BY ordinal_position
	`

	err := db.Raw(query, tableName).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}

	// Check if table exists
	if len(columns) == 0 {
		// Verify if table exists
		var tableExists bool
		tableQuery := `
			SELECT EXISTS (
				SELECT FROM information_schema.tables 
				WHERE table_schema = CURRENT_SCHEMA() 
				AND table_name = ?
			)
		`
		if err := db.Raw(tableQuery, tableName).Scan(&tableExists).Error; err != nil {
			return nil, fmt.Errorf("error checking if table %s exists: %w", tableName, err)
		}

		if !tableExists {
			return nil, fmt.Errorf("table %s does not exist", tableName)
		}
	}

	return columns, nil
}

// getModelFields extracts field names from a Go struct using reflection
func getModelFields(model interface{}) []string {
	var fields []string
	t := reflect.TypeOf(model)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip embedded structs (foreign key relationships)
		if field.Anonymous {
			continue
		}

		// Relations carry no db tag and map to no column
		if column := extractColumnNameFromGormTag(field.Tag.Get("gorm")); column != "" {
			fields = append(fields, column)
			continue
		}
		if column := field.Tag.Get("db"); column != "" && column != "-" {
			fields = append(fields, column)
		}
	}

	return fields
}

// extractColumnNameFromGormTag extracts an explicit column name from a GORM tag
func extractColumnNameFromGormTag(gormTag string) string {
	parts := strings.Split(gormTag, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return ""
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool)
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}

	return mismatches
}

// GenerateColumnMismatchReportStandalone generates a report without running migrations
func GenerateColumnMismatchReportStandalone(db *gorm.DB) {
	// First, ensure the database is ready
	if err := db.Exec("SELECT 1").Error; err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	GenerateColumnMismatchReport(db)
}

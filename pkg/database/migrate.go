package database

import (
	"fmt"
	"log"

	"heritage-archive-be/internal/model"

	"gorm.io/gorm"
)

var setupSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE EXTENSION IF NOT EXISTS vector;`,
}

var postMigrationSQL = []string{
	`CREATE INDEX IF NOT EXISTS archives_embedding_ivfflat_idx ON archives USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`,
	`CREATE INDEX IF NOT EXISTS archives_tags_gin_idx ON archives USING gin (tags);`,
	`CREATE INDEX IF NOT EXISTS archives_media_types_gin_idx ON archives USING gin (media_types);`,
}

// Migrate creates the pgvector extension, the archives table and its search indexes.
// Extension and index failures are logged and skipped; AutoMigrate failures are returned.
func Migrate(db *gorm.DB) error {
	log.Println("Step 1: Setting up Extensions...")
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.Archive{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	log.Println("Step 3: Creating Indexes...")
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}
	return nil
}

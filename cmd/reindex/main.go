package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"surveillance/internal/config"
	"surveillance/internal/models"
	"surveillance/internal/repository/sqlite"
	"surveillance/internal/services/storage"
)

// reindex rebuilds the evidence catalog from the files on disk.
func main() {
	cfg := config.Load()
	evidenceDir := flag.String("evidence", cfg.EvidenceDirectory, "Directory containing evidence images")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	prune := flag.Bool("prune", false, "Remove catalog entries whose file is gone")
	flag.Parse()

	fmt.Printf("Indexing evidence from %s into %s\n", *evidenceDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	repo := sqlite.NewEvidenceRepository(db)

	files, err := os.ReadDir(*evidenceDir)
	if err != nil {
		log.Fatalf("Failed to read evidence directory: %v", err)
	}

	var records []models.EvidenceRecord
	skipped := 0
	onDisk := make(map[string]bool)
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".jpg" {
			continue
		}

		ec, err := storage.ParseEvidenceName(file.Name())
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		info, err := file.Info()
		if err != nil {
			log.Printf("⚠️  Failed to get info for %s: %v", file.Name(), err)
			skipped++
			continue
		}

		onDisk[file.Name()] = true
		records = append(records, models.EvidenceRecord{
			Filename:  file.Name(),
			Kind:      ec.Kind,
			Camera:    ec.Camera,
			TrackID:   ec.TrackID,
			Timestamp: ec.At,
			FilePath:  filepath.Join(*evidenceDir, file.Name()),
			FileSize:  info.Size(),
		})
	}

	inserted, err := repo.BulkInsert(records)
	if err != nil {
		log.Fatalf("Failed to insert evidence: %v", err)
	}
	fmt.Printf("✅ Found %d evidence files, %d newly catalogued\n", len(records), inserted)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (invalid name or errors)\n", skipped)
	}

	if *prune {
		catalogued, err := repo.GetAll(nil)
		if err != nil {
			log.Fatalf("Failed to list catalog: %v", err)
		}
		pruned := 0
		for _, rec := range catalogued {
			if onDisk[rec.Filename] {
				continue
			}
			if err := repo.DeleteByFilename(rec.Filename); err != nil {
				log.Printf("⚠️  Failed to prune %s: %v", rec.Filename, err)
				continue
			}
			pruned++
		}
		fmt.Printf("🧹 Pruned %d catalog entries without a file\n", pruned)
	}

	stats, err := repo.GetStats()
	if err == nil {
		fmt.Printf("\n📊 Catalog Statistics:\n")
		fmt.Printf("   Total evidence: %d\n", stats.Total)
		fmt.Printf("   Total size: %d bytes\n", stats.TotalSizeBytes)
		fmt.Printf("   Per camera:\n")
		for camera, count := range stats.PerCamera {
			fmt.Printf("      - camera %d: %d files\n", camera, count)
		}
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"spatialsearch/internal/config"
	"spatialsearch/internal/repository/sqlite"
	"spatialsearch/internal/service/storage"
)

func main() {
	cfg := config.Load()

	uploadDir := flag.String("uploads", cfg.UploadDirectory, "Directory containing snapshots")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	prune := flag.Bool("prune", false, "Delete snapshots no spatial log references")
	flag.Parse()

	fmt.Printf("Auditing snapshots in %s against database %s\n", *uploadDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewSpatialLogRepository(db)

	report, err := storage.Audit(*uploadDir, repo)
	if err != nil {
		log.Fatalf("Audit failed: %v", err)
	}

	fmt.Printf("   Referenced snapshots: %d\n", report.Referenced)
	for _, name := range report.MissingFiles {
		fmt.Printf("⚠️  Missing on disk: %s\n", name)
	}
	for _, name := range report.OrphanFiles {
		fmt.Printf("⚠️  Orphan snapshot: %s\n", name)
	}

	if *prune && len(report.OrphanFiles) > 0 {
		removed, err := storage.PruneOrphans(*uploadDir, report)
		if err != nil {
			log.Fatalf("Failed to prune orphans: %v", err)
		}
		fmt.Printf("✅ Removed %d orphan snapshot(s)\n", removed)
	}

	// Show stats
	counts, err := repo.CountByObject()
	if err == nil {
		labels := make([]string, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		fmt.Printf("\n📊 Spatial log statistics:\n")
		for _, label := range labels {
			fmt.Printf("      - %s: %d sighting(s)\n", label, counts[label])
		}
	}
}

package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/pgzip"
)

var header = []string{
	"code", "discount_type", "value", "max_discount", "minimum_amount",
	"usage_limit", "expires_at", "is_active", "description",
}

// generateSampleCoupons creates sample coupon catalogues for local imports.
// seasonal.csv.gz and partners.csv.gz both define WELCOME10; importing them in
// that order leaves the partner definition (15%) in place.
//
//	go run scripts/generate_sample_coupons.go
//	go run ./cmd/coupon-import data/coupons/seasonal.csv.gz data/coupons/partners.csv.gz
func main() {
	dataDir := "data/coupons"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	nextYear := time.Now().AddDate(1, 0, 0).UTC().Format(time.RFC3339)
	lastYear := time.Now().AddDate(-1, 0, 0).UTC().Format(time.RFC3339)

	catalogues := map[string][][]string{
		"seasonal.csv.gz": {
			{"WELCOME10", "percentage", "10", "", "", "", "", "true", "First order discount"},
			{"SAVE10", "percentage", "10", "50", "100", "1000", nextYear, "true", "10% off orders over 100"},
			{"FLAT50", "flat", "50", "", "250", "500", nextYear, "true", "50 off orders over 250"},
			{"SUMMER-2024", "percentage", "20", "", "", "", lastYear, "true", "Expired seasonal sale"},
			{"PAUSED_5", "flat", "5", "", "", "", "", "false", "Disabled by marketing"},
		},
		"partners.csv.gz": {
			{"WELCOME10", "percentage", "15", "75", "", "", "", "true", "Partner welcome offer"},
			{"PARTNER_ONCE", "flat", "100", "", "500", "1", nextYear, "true", "Single use partner voucher"},
		},
	}

	for filename, rows := range catalogues {
		filePath := filepath.Join(dataDir, filename)

		if err := createCatalogue(filePath, rows); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d coupons\n", filePath, len(rows))
	}

	fmt.Println("\nSample coupon catalogues created successfully!")
	fmt.Println("\nImport order matters for WELCOME10:")
	fmt.Println("  - seasonal.csv.gz then partners.csv.gz  -> 15% (max 75)")
	fmt.Println("  - partners.csv.gz then seasonal.csv.gz  -> 10%")
	fmt.Println("\nNot redeemable after import:")
	fmt.Println("  - SUMMER-2024 (expired)")
	fmt.Println("  - PAUSED_5    (inactive)")
}

func createCatalogue(filePath string, rows [][]string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := pgzip.NewWriter(file)
	csvWriter := csv.NewWriter(gzipWriter)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write coupons: %w", err)
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return nil
}

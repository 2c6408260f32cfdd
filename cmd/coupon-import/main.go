// Command coupon-import loads gzipped CSV coupon catalogues from S3 or the
// local file system and upserts them into the coupons table.
//
//	coupon-import [-timeout 5m] catalogue1.csv.gz [catalogue2.csv.gz ...]
//
// With S3 enabled each path is first fetched from the bucket under the
// configured prefix. A failed S3 read falls back to the local file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/database"
	"storefront/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the import after this long")
	flag.Parse()
	if flag.NArg() == 0 {
		return fmt.Errorf("usage: coupon-import [-timeout 5m] <catalogue.csv.gz> [catalogue.csv.gz]")
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "storefront-coupon-import")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	fileLoader := coupon.NewFileLoader(logger)
	var s3Loader coupon.Loader
	if cfg.S3.Enabled {
		s3Loader, err = coupon.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	} else {
		logger.Info().Msg("using local file system for coupon files (S3 disabled)")
	}
	loader := coupon.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled && s3Loader != nil, logger)

	importer := coupon.NewImporter(loader, repository.NewCouponRepository(pool, logger), logger)
	result, err := importer.Import(ctx, flag.Args()...)
	if err != nil {
		return err
	}

	logger.Info().
		Int("files", result.Files).
		Int("parsed", result.Parsed).
		Int("written", result.Written).
		Msg("coupon import completed")
	return nil
}

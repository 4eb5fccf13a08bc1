// Package main provides a one-shot CLI that uploads an image, runs a
// generation attempt, and saves the resulting media locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/chromaplay/effects-api/internal/assets"
	"github.com/chromaplay/effects-api/internal/chroma"
	"github.com/chromaplay/effects-api/internal/config"
	"github.com/chromaplay/effects-api/internal/download"
	"github.com/chromaplay/effects-api/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	imagePath := flag.String("image", "", "path to the source image")
	skipDownload := flag.Bool("no-download", false, "skip saving the result locally")
	flag.Parse()

	if *imagePath == "" {
		return fmt.Errorf("usage: generate -image <path>")
	}

	// Load .env if present; real environment variables take precedence
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// Wire the pipeline directly; the CLI wants notifications on the
	// terminal rather than projected into an attempt store.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var uploader assets.Uploader
	if cfg.S3Enabled() {
		uploader, err = assets.NewS3Uploader(assets.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			PublicBaseURL:   cfg.AssetPublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("create S3 uploader: %w", err)
		}
	} else {
		uploader, err = assets.NewSignedURLClient(cfg.AssetAPIBaseURL, cfg.AssetPublicBaseURL,
			assets.WithProjectID(cfg.ProjectID),
			assets.WithHTTPClient(httpClient),
		)
		if err != nil {
			return fmt.Errorf("create signed URL client: %w", err)
		}
	}

	client, err := chroma.NewClient(cfg.GenAPIBaseURL, cfg.GenUserID,
		chroma.WithHTTPClient(httpClient),
		chroma.WithJobType(chroma.JobType(cfg.GenJobType)),
		chroma.WithEffectID(cfg.EffectID),
		chroma.WithModel(cfg.Model),
		chroma.WithRemoveWatermark(cfg.RemoveWatermark),
		chroma.WithPrivate(cfg.IsPrivate),
		chroma.WithPollInterval(cfg.PollInterval),
		chroma.WithMaxPolls(cfg.MaxPolls),
	)
	if err != nil {
		return fmt.Errorf("create generation client: %w", err)
	}

	downloader, err := download.New(cfg.DownloadDir, download.WithPrefix(cfg.DownloadPrefix))
	if err != nil {
		return fmt.Errorf("create downloader: %w", err)
	}

	sess := session.New(uploader, client, session.NewLogNotifier(logger), logger,
		session.WithDownloader(downloader),
	)

	file, err := os.Open(*imagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	ctx := context.Background()

	assetURL, err := sess.Upload(ctx, file, assets.FileMetadata{
		Name:        filepath.Base(*imagePath),
		ContentType: contentTypeFor(*imagePath),
	})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	logger.Info("asset uploaded", slog.String("asset_url", assetURL))

	res, err := sess.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	logger.Info("generation complete",
		slog.String("media_url", res.MediaURL),
		slog.String("kind", string(res.Kind)),
	)

	if *skipDownload {
		fmt.Println(res.MediaURL)
		return nil
	}

	path, err := sess.Download(ctx)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	fmt.Println(path)
	return nil
}

// contentTypeFor maps the file extension to a MIME type, defaulting to JPEG.
func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "image/jpeg"
}

// Package bootstrap provides dependency initialization for the playground.
package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chromaplay/effects-api/internal/assets"
	"github.com/chromaplay/effects-api/internal/attempt"
	"github.com/chromaplay/effects-api/internal/chroma"
	"github.com/chromaplay/effects-api/internal/config"
	"github.com/chromaplay/effects-api/internal/download"
	"github.com/chromaplay/effects-api/internal/session"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Session  *session.Session
	Attempts attempt.Repository
	Recorder *attempt.Recorder
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	uploader, err := initUploader(cfg, logger)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

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
		return nil, fmt.Errorf("create generation client: %w", err)
	}

	downloader, err := download.New(cfg.DownloadDir, download.WithPrefix(cfg.DownloadPrefix))
	if err != nil {
		return nil, fmt.Errorf("create downloader: %w", err)
	}

	repo := attempt.NewMemoryRepository()
	recorder := attempt.NewRecorder(repo, logger)

	sess := session.New(uploader, client, recorder, logger,
		session.WithDownloader(downloader),
	)

	return &Dependencies{
		Session:  sess,
		Attempts: repo,
		Recorder: recorder,
	}, nil
}

// initUploader creates the appropriate asset backend based on configuration.
func initUploader(cfg *config.Config, logger *slog.Logger) (assets.Uploader, error) {
	if cfg.S3Enabled() {
		s3Uploader, err := assets.NewS3Uploader(assets.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			PublicBaseURL:   cfg.AssetPublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 uploader: %w", err)
		}
		logger.Info("S3 asset backend configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Uploader, nil
	}

	signedURLClient, err := assets.NewSignedURLClient(cfg.AssetAPIBaseURL, cfg.AssetPublicBaseURL,
		assets.WithProjectID(cfg.ProjectID),
		assets.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("create signed URL client: %w", err)
	}
	logger.Info("signed URL asset backend configured",
		slog.String("api_base_url", cfg.AssetAPIBaseURL),
	)
	return signedURLClient, nil
}

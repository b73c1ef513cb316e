package app

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"evaltrack/internal/gateway/config"
	"evaltrack/internal/gateway/repository/annotations"
	artifactrepo "evaltrack/internal/gateway/repository/artifact"
	"evaltrack/internal/gateway/repository/plannedfix"
	"evaltrack/internal/gateway/repository/runs"
	"evaltrack/internal/gateway/storage"
)

type gatewayStores struct {
	runs        runs.Repository
	annotations annotations.Repository
	fixes       plannedfix.Repository
	artifacts   artifactrepo.Store
}

// openGateway connects the relational backend when DATABASE_URL is set. An
// empty DSN is the documented file-backend mode, not an error.
func openGateway(cfg *config.Config, log zerolog.Logger) (*storage.Gateway, error) {
	if cfg.DatabaseURL == "" {
		log.Info().Str("data_dir", cfg.DataDir).Msg("no DATABASE_URL, using file-backed stores")
		return nil, nil
	}
	gw, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.Info().Msg("entity stores: postgres")
	return gw, nil
}

func initStores(cfg *config.Config, gw *storage.Gateway, log zerolog.Logger) (*gatewayStores, error) {
	artifactStore, err := initArtifactStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return &gatewayStores{
		runs:        runs.NewStore(gw, filepath.Join(cfg.DataDir, "runs.json")),
		annotations: annotations.NewStore(gw, filepath.Join(cfg.DataDir, "annotations.json")),
		fixes:       plannedfix.NewStore(gw, filepath.Join(cfg.DataDir, "planned_fixes.json")),
		artifacts:   artifactStore,
	}, nil
}

func initArtifactStore(cfg *config.Config, log zerolog.Logger) (artifactrepo.Store, error) {
	var origin artifactrepo.Store
	if cfg.Artifact.Enabled {
		s3Store, err := artifactrepo.NewS3Store(artifactrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.Info().Str("bucket", cfg.Artifact.Bucket).Str("endpoint", cfg.Artifact.Endpoint).Msg("artifact store: s3")
		origin = s3Store
	} else {
		log.Info().Str("dir", cfg.DataDir).Msg("artifact store: local directory")
		origin = artifactrepo.NewLocalStore(cfg.DataDir)
	}
	return artifactrepo.NewCachedStore(origin, 1024)
}

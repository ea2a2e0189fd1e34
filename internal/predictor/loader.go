package predictor

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"vehicle-pricing/internal/common/config"
	perrors "vehicle-pricing/internal/common/errors"
	commonhttp "vehicle-pricing/internal/common/http"
	"vehicle-pricing/internal/common/logger"
)

// Load builds the predictor named by cfg.Source. It runs once at startup; a returned
// error means the process serves without a model until it is redeployed.
// db is only used by the postgres source and may be nil otherwise.
func Load(ctx context.Context, cfg config.ModelConfig, db *sql.DB, log logger.Logger) (*Loaded, error) {
	log = log.WithFields(map[string]interface{}{"source": cfg.Source})

	var (
		loaded *Loaded
		err    error
	)
	switch cfg.Source {
	case config.ModelSourceFile:
		loaded, err = loadFile(cfg.ArtifactPath)
	case config.ModelSourcePostgres:
		loaded, err = loadPostgres(ctx, cfg, db)
	case config.ModelSourceRemote:
		loaded = loadRemote(cfg)
	default:
		err = fmt.Errorf("unknown model source %q", cfg.Source)
	}
	if err != nil {
		log.Error("Model load failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	log.Info("Model loaded", map[string]interface{}{
		"version": loaded.Info.Version,
		"format":  loaded.Info.Format,
	})
	return loaded, nil
}

func loadFile(path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.NewArtifactLoadError(path, err)
	}
	return fromBytes(data, path, "")
}

func loadPostgres(ctx context.Context, cfg config.ModelConfig, db *sql.DB) (*Loaded, error) {
	source := "postgres:" + cfg.ArtifactName
	if db == nil {
		return nil, perrors.NewArtifactLoadError(source, fmt.Errorf("no database connection"))
	}

	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Timeout))
	defer cancel()

	data, version, err := NewPostgresArtifactStore(db).Latest(ctx, cfg.ArtifactName)
	if err != nil {
		return nil, perrors.NewArtifactLoadError(source, err)
	}
	return fromBytes(data, source, version)
}

func loadRemote(cfg config.ModelConfig) *Loaded {
	headers := map[string]string{}
	if cfg.RemoteAPIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.RemoteAPIKey
	}
	client := commonhttp.NewClient(config.GetDuration(cfg.Timeout), headers)
	return &Loaded{
		Predictor: NewRemotePredictor(client, cfg.RemoteURL),
		Info:      Info{Version: "remote", Format: FormatRemote, Source: cfg.RemoteURL},
	}
}

// fromBytes parses and compiles an artifact. fallbackVersion is used when the
// artifact does not carry its own version.
func fromBytes(data []byte, source, fallbackVersion string) (*Loaded, error) {
	artifact, err := ParseArtifact(data)
	if err != nil {
		if _, ok := err.(*perrors.StandardError); ok {
			return nil, err
		}
		return nil, perrors.NewArtifactLoadError(source, err)
	}

	p, err := artifact.Build()
	if err != nil {
		return nil, perrors.NewArtifactLoadError(source, err)
	}

	version := artifact.Version
	if version == "" {
		version = fallbackVersion
	}
	return &Loaded{
		Predictor: p,
		Info:      Info{Version: version, Format: artifact.Format, Source: source},
	}, nil
}

package predictor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const latestArtifactQuery = `
	SELECT version, payload
	FROM model_artifacts
	WHERE name = $1 AND active = TRUE
	ORDER BY created_at DESC
	LIMIT 1`

// ErrNoActiveArtifact is returned when the store holds no active artifact under the name.
var ErrNoActiveArtifact = errors.New("no active model artifact")

// PostgresArtifactStore reads serialized artifacts from the model_artifacts table.
type PostgresArtifactStore struct {
	db *sql.DB
}

func NewPostgresArtifactStore(db *sql.DB) *PostgresArtifactStore {
	return &PostgresArtifactStore{db: db}
}

// Latest returns the newest active artifact named name and its row version.
func (s *PostgresArtifactStore) Latest(ctx context.Context, name string) ([]byte, string, error) {
	var (
		version string
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, latestArtifactQuery, name).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("%w: %s", ErrNoActiveArtifact, name)
	}
	if err != nil {
		return nil, "", fmt.Errorf("query model artifact: %w", err)
	}
	return payload, version, nil
}

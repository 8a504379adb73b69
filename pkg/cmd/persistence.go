package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vireohq/flowd/pkg/persistence"
	"github.com/vireohq/flowd/pkg/persistence/file"
	"github.com/vireohq/flowd/pkg/persistence/postgresql"
)

// NewPersistence builds the persistence backend from a database URL. A
// postgres:// URL selects PostgreSQL; everything else is treated as a file
// system root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgresql persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parseProvider(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)

	return parts[0]
}

// Package db contains background maintenance jobs for the store.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Execer is the minimal pool surface the cleaner needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// StartTokenCleaner periodically deletes session tokens older than ttl.
// Validity is defined by set membership, so the sweep is what actually ends
// sessions whose embedded expiry has passed.
func StartTokenCleaner(
	ctx context.Context,
	pool Execer,
	interval time.Duration,
	ttl time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-ttl)
				tag, err := pool.Exec(ctx, `
                    DELETE FROM user_tokens
                     WHERE created_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean expired tokens", zap.Error(err))
					continue
				}
				if rows := tag.RowsAffected(); rows > 0 {
					log.Info("cleaned expired tokens", zap.Int64("removed", rows))
				}
			}
		}
	}()
}

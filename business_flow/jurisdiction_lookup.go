package businessflow

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/amirphl/civic-portal/repository"
	"github.com/amirphl/civic-portal/utils"
)

// CachedJurisdictionLookup resolves identifiers from the database through a Redis read-through cache.
// Identifiers never change after creation, so entries are stored without expiry.
// Cache failures are logged and the database answers instead.
type CachedJurisdictionLookup struct {
	repo   repository.JurisdictionRepository
	rc     *redis.Client
	logger *zap.Logger
}

// NewJurisdictionLookup creates a lookup; rc may be nil to disable caching
func NewJurisdictionLookup(repo repository.JurisdictionRepository, rc *redis.Client, logger *zap.Logger) *CachedJurisdictionLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedJurisdictionLookup{repo: repo, rc: rc, logger: logger}
}

func identifierCacheKey(jurisdictionID uint) string {
	return utils.JurisdictionIdentifierCachePrefix + strconv.FormatUint(uint64(jurisdictionID), 10)
}

func (l *CachedJurisdictionLookup) GetIdentifier(ctx context.Context, jurisdictionID uint) (string, error) {
	if jurisdictionID == 0 {
		return "", &NotFoundError{JurisdictionID: jurisdictionID}
	}

	key := identifierCacheKey(jurisdictionID)
	if l.rc != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, utils.CacheOperationTimeout)
		identifier, err := l.rc.Get(cacheCtx, key).Result()
		cancel()
		switch {
		case err == nil && identifier != "":
			return identifier, nil
		case err != nil && !errors.Is(err, redis.Nil):
			l.logger.Warn("Jurisdiction cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	jurisdiction, err := l.repo.ByID(ctx, jurisdictionID)
	if err != nil {
		return "", err
	}
	if jurisdiction == nil {
		return "", &NotFoundError{JurisdictionID: jurisdictionID}
	}

	if l.rc != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, utils.CacheOperationTimeout)
		if err := l.rc.Set(cacheCtx, key, jurisdiction.Identifier, 0).Err(); err != nil {
			l.logger.Warn("Jurisdiction cache write failed", zap.String("key", key), zap.Error(err))
		}
		cancel()
	}

	return jurisdiction.Identifier, nil
}

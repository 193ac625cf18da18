package claim

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/cwu2020/reflist-sub001/internal/claim/domain"
	"github.com/cwu2020/reflist-sub001/internal/claim/repository"
	"github.com/cwu2020/reflist-sub001/internal/claim/service"
	"github.com/cwu2020/reflist-sub001/internal/claim/store"
)

// NewVerificationStore prefers redis so verification tokens survive restarts
// and expire server-side; the in-memory store is the single-node fallback.
func NewVerificationStore(client *redis.Client, memory *store.MemoryStore) domain.VerificationStore {
	if redisStore := store.NewRedisStore(client); redisStore != nil {
		return redisStore
	}
	return memory
}

var Module = fx.Module("claim.service",
	fx.Provide(store.NewMemoryStore),
	fx.Provide(NewVerificationStore),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

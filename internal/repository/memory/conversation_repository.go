package memory

import (
	"time"

	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

var _ store.ConversationRepository = (*ConversationRepository)(nil)

type ConversationRepository struct {
	cache *cache.Cache
}

// NewConversationRepository expires idle threads after ttl and purges them every 10 minutes.
func NewConversationRepository(ttl time.Duration) *ConversationRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ConversationRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *ConversationRepository) Save(state *rag.ConversationState) {
	r.cache.Set(state.ThreadID, state, cache.DefaultExpiration)
}

func (r *ConversationRepository) Get(threadID string) (*rag.ConversationState, bool) {
	if x, found := r.cache.Get(threadID); found {
		return x.(*rag.ConversationState), true
	}
	return nil, false
}

func (r *ConversationRepository) Delete(threadID string) {
	r.cache.Delete(threadID)
}

// Count is the number of live threads.
func (r *ConversationRepository) Count() int {
	return r.cache.ItemCount()
}

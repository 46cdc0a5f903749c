package service

import (
	"hash/fnv"
	"math/rand"
	"sync"

	"github.com/noah-isme/village-api/internal/models"
)

// DefaultAvatars is the built-in avatar set.
var DefaultAvatars = []string{
	"fox", "bear", "owl", "rabbit", "otter", "hedgehog", "deer", "squirrel",
	"badger", "beaver", "frog", "duck", "mole", "raccoon", "wolf", "turtle",
	"penguin", "koala", "panda", "lion", "tiger", "zebra", "giraffe", "whale",
}

// AvatarPool assigns each student a stable avatar from a list shuffled by the
// class seed. It belongs to one class session and memoises assignments.
type AvatarPool struct {
	mu       sync.Mutex
	order    []string
	assigned map[string]string
}

// NewAvatarPool shuffles avatars deterministically for seed.
func NewAvatarPool(seed string, avatars []string) *AvatarPool {
	if len(avatars) == 0 {
		avatars = DefaultAvatars
	}
	order := make([]string, len(avatars))
	copy(order, avatars)
	rng := rand.New(rand.NewSource(int64(hash64(seed))))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return &AvatarPool{order: order, assigned: make(map[string]string)}
}

// Avatar returns the avatar for a student. Numbered students take the slot of
// their roster number; others hash their id.
func (p *AvatarPool) Avatar(st models.Student) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if avatar, ok := p.assigned[st.ID]; ok {
		return avatar
	}
	var slot int
	if st.Number > 0 {
		slot = (st.Number - 1) % len(p.order)
	} else {
		slot = int(hash64(st.ID) % uint64(len(p.order)))
	}
	avatar := p.order[slot]
	p.assigned[st.ID] = avatar
	return avatar
}

// Forget drops a memoised assignment, e.g. after a renumbering.
func (p *AvatarPool) Forget(studentID string) {
	p.mu.Lock()
	delete(p.assigned, studentID)
	p.mu.Unlock()
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

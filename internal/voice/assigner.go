package voice

import (
	"math/rand"
)

// Assigner picks voices for one request. The used set lives only for the
// lifetime of a single request and is never shared or persisted; a fresh
// Assigner must be created per submission.
type Assigner struct {
	rng  *rand.Rand
	used map[string]bool
}

func NewAssigner(seed int64) *Assigner {
	return &Assigner{
		rng:  rand.New(rand.NewSource(seed)),
		used: make(map[string]bool),
	}
}

// Assign resolves a voice selection: a literal name is taken as-is, an empty
// name triggers a randomized categorical pick. Randomized picks avoid voices
// already assigned earlier in this request; once the category pool is
// exhausted the pick falls back to the category's full pool, so duplicates
// become possible and are accepted.
func (a *Assigner) Assign(name string, cat Category) string {
	if name != "" {
		a.used[name] = true
		return name
	}

	pool := Pool(cat)
	fresh := pool[:0:0]
	for _, v := range pool {
		if !a.used[v] {
			fresh = append(fresh, v)
		}
	}
	if len(fresh) == 0 {
		fresh = pool
	}

	picked := fresh[a.rng.Intn(len(fresh))]
	a.used[picked] = true
	return picked
}

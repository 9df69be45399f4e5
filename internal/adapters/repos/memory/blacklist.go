package memory

import (
	"context"
	"slices"
	"sync"

	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
)

type BlacklistRepo struct {
	mu      sync.RWMutex
	entries map[blacklist.Entry]struct{}
}

func NewBlacklistRepo(entries ...blacklist.Entry) *BlacklistRepo {
	r := &BlacklistRepo{entries: make(map[blacklist.Entry]struct{}, len(entries))}
	for _, e := range entries {
		r.entries[e] = struct{}{}
	}
	return r
}

func (r *BlacklistRepo) IsBlocked(_ context.Context, candidates ...blacklist.Entry) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range candidates {
		if _, ok := r.entries[c]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (r *BlacklistRepo) AddEntry(_ context.Context, entry blacklist.Entry) error {
	r.mu.Lock()
	r.entries[entry] = struct{}{}
	r.mu.Unlock()
	return nil
}

func (r *BlacklistRepo) RemoveEntry(_ context.Context, entry blacklist.Entry) error {
	r.mu.Lock()
	delete(r.entries, entry)
	r.mu.Unlock()
	return nil
}

func (r *BlacklistRepo) ListEntries(_ context.Context) ([]blacklist.Entry, error) {
	r.mu.RLock()
	out := make([]blacklist.Entry, 0, len(r.entries))
	for e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()
	slices.Sort(out)
	return out, nil
}

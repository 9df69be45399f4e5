package memory

import (
	"context"
	"sync"

	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
)

type SettingsRepo struct {
	mu     sync.Mutex
	global settings.Global
}

func NewSettingsRepo() *SettingsRepo {
	return &SettingsRepo{}
}

func (r *SettingsRepo) GetSettings(_ context.Context) (*settings.Global, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.global
	return &g, nil
}

func (r *SettingsRepo) UpdateSettings(ctx context.Context, fn func(ctx context.Context, g *settings.Global) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := r.global
	if err := fn(ctx, &g); err != nil {
		return err
	}
	r.global = g
	return nil
}

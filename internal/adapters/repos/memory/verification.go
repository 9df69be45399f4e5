package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

// EventPublisher receives events once a mutation has been applied.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

// VerificationRepo keeps records in a map. Each identity has its own mutex
// held for the whole read-modify-write; the map lock is only taken to look
// entries up.
type VerificationRepo struct {
	mu      sync.RWMutex
	locks   map[verification.Identity]*identityLock
	records map[verification.Identity]*verification.Record
	events  EventPublisher
}

// identityLock lives in the locks map only while someone holds or waits for
// it.
type identityLock struct {
	mu   sync.Mutex
	refs int
}

func NewVerificationRepo(events EventPublisher) *VerificationRepo {
	return &VerificationRepo{
		locks:   make(map[verification.Identity]*identityLock),
		records: make(map[verification.Identity]*verification.Record),
		events:  events,
	}
}

func (r *VerificationRepo) lock(identity verification.Identity) func() {
	r.mu.Lock()
	l, ok := r.locks[identity]
	if !ok {
		l = &identityLock{}
		r.locks[identity] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, identity)
		}
		r.mu.Unlock()
	}
}

func (r *VerificationRepo) load(identity verification.Identity) *verification.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[identity].Clone()
}

func (r *VerificationRepo) store(rec *verification.Record) {
	r.mu.Lock()
	r.records[rec.Identity()] = rec.Clone()
	r.mu.Unlock()
}

func (r *VerificationRepo) publish(ctx context.Context, rec *verification.Record) error {
	defer rec.MarkEventsAsCommitted()
	if r.events == nil {
		return nil
	}
	return r.events.Publish(ctx, rec.GetUncommittedEvents()...)
}

func (r *VerificationRepo) GetVerification(_ context.Context, identity verification.Identity) (*verification.Record, error) {
	rec := r.load(identity)
	if rec == nil {
		return nil, errorx.Wrap(verification.ErrNotFound, "memory.VerificationRepo.GetVerification")
	}
	return rec, nil
}

func (r *VerificationRepo) ReplaceVerification(ctx context.Context, rec *verification.Record) error {
	unlock := r.lock(rec.Identity())
	defer unlock()

	r.store(rec)
	return r.publish(ctx, rec)
}

func (r *VerificationRepo) UpdateVerification(
	ctx context.Context,
	identity verification.Identity,
	fn func(ctx context.Context, rec *verification.Record) error,
) error {
	unlock := r.lock(identity)
	defer unlock()

	rec := r.load(identity)
	if rec == nil {
		return errorx.Wrap(verification.ErrNotFound, "memory.VerificationRepo.UpdateVerification")
	}

	if err := fn(ctx, rec); err != nil {
		return err
	}

	r.store(rec)
	return r.publish(ctx, rec)
}

func (r *VerificationRepo) ForceVerification(ctx context.Context, rec *verification.Record) (*verification.Record, error) {
	unlock := r.lock(rec.Identity())
	defer unlock()

	stored := r.load(rec.Identity())
	if stored == nil {
		stored = rec
	} else {
		stored.ForceVerify(rec.UpdatedAt())
	}

	r.store(stored)
	if err := r.publish(ctx, stored); err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

func (r *VerificationRepo) DeleteVerification(
	ctx context.Context,
	identity verification.Identity,
	reason verification.RevokeReason,
) (*verification.Record, error) {
	unlock := r.lock(identity)
	defer unlock()

	r.mu.Lock()
	removed, ok := r.records[identity]
	delete(r.records, identity)
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}

	removed.Revoke(reason)
	if err := r.publish(ctx, removed); err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *VerificationRepo) ListVerifications(_ context.Context, filter verification.Filter) ([]*verification.Record, error) {
	r.mu.RLock()
	out := make([]*verification.Record, 0, len(r.records))
	for _, rec := range r.records {
		if filter.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *verification.Record) int {
		return strings.Compare(a.Identity().String(), b.Identity().String())
	})
	return out, nil
}

package redis

import (
	"context"
	"log/slog"
	"slices"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/blacklist"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

var (
	tracer = otel.Tracer("emailverify/internal/adapters/repos/redis")
	logger = otelslog.NewLogger("emailverify/internal/adapters/repos/redis")
)

const DefaultBlacklistKey = "emailverify:blacklist"

// BlacklistRepo keeps the blacklist as a single Redis set.
type BlacklistRepo struct {
	tracer trace.Tracer
	logger *slog.Logger
	rdb    redis.Cmdable
	key    string
}

type BlacklistRepoArgs struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Client redis.Cmdable
	Key    string
}

// NewBlacklistRepo panics if args.Client is nil.
func NewBlacklistRepo(args BlacklistRepoArgs) *BlacklistRepo {
	if args.Client == nil {
		panic("redis client cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Key == "" {
		args.Key = DefaultBlacklistKey
	}

	return &BlacklistRepo{
		tracer: args.Tracer,
		logger: args.Logger,
		rdb:    args.Client,
		key:    args.Key,
	}
}

func (r *BlacklistRepo) IsBlocked(ctx context.Context, candidates ...blacklist.Entry) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "BlacklistRepo.IsBlocked")
	defer span.End()

	if len(candidates) == 0 {
		return false, nil
	}

	members := make([]any, len(candidates))
	for i, c := range candidates {
		members[i] = c.String()
	}

	found, err := r.rdb.SMIsMember(ctx, r.key, members...).Result()
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to check blacklist")
		return false, errorx.NewStoreUnavailable().WithCause(err)
	}

	return slices.Contains(found, true), nil
}

func (r *BlacklistRepo) AddEntry(ctx context.Context, entry blacklist.Entry) error {
	ctx, span := r.tracer.Start(ctx, "BlacklistRepo.AddEntry")
	defer span.End()

	if err := r.rdb.SAdd(ctx, r.key, entry.String()).Err(); err != nil {
		otelx.RecordSpanError(span, err, "failed to add blacklist entry")
		return errorx.NewStoreUnavailable().WithCause(err)
	}
	return nil
}

func (r *BlacklistRepo) RemoveEntry(ctx context.Context, entry blacklist.Entry) error {
	ctx, span := r.tracer.Start(ctx, "BlacklistRepo.RemoveEntry")
	defer span.End()

	if err := r.rdb.SRem(ctx, r.key, entry.String()).Err(); err != nil {
		otelx.RecordSpanError(span, err, "failed to remove blacklist entry")
		return errorx.NewStoreUnavailable().WithCause(err)
	}
	return nil
}

func (r *BlacklistRepo) ListEntries(ctx context.Context) ([]blacklist.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "BlacklistRepo.ListEntries")
	defer span.End()

	members, err := r.rdb.SMembers(ctx, r.key).Result()
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list blacklist")
		return nil, errorx.NewStoreUnavailable().WithCause(err)
	}
	slices.Sort(members)

	out := make([]blacklist.Entry, len(members))
	for i, m := range members {
		out[i] = blacklist.Entry(m)
	}
	return out, nil
}

package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/database"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
)

var repoTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/repository/user")

// ErrNotFound is returned when a user is missing or inactive.
var ErrNotFound = errors.New("user not found")

// Repository encapsulates read/write access for users.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// GetActive loads an active user by id.
func (r *Repository) GetActive(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetActive", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user := new(entity.User)
	err := r.reader.NewSelect().Model(user).Where("u.id = ?", id).Apply(entity.Active).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return user, nil
}

// Emails snapshots every registered email, lower-cased. Inactive users keep
// their address reserved.
func (r *Repository) Emails(ctx context.Context) (map[string]struct{}, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.Emails")
	defer span.End()

	var emails []string
	if err := r.reader.NewSelect().Model((*entity.User)(nil)).Column("u.email").Scan(ctx, &emails); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		set[strings.ToLower(email)] = struct{}{}
	}
	return set, nil
}

// Create inserts a single user.
func (r *Repository) Create(ctx context.Context, user *entity.User) error {
	return r.CreateBatch(ctx, []*entity.User{user})
}

// CreateBatch inserts users with one statement inside a transaction. Either
// every user is stored or none is.
func (r *Repository) CreateBatch(ctx context.Context, users []*entity.User) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.CreateBatch", trace.WithAttributes(attribute.Int("user.count", len(users))))
	defer span.End()

	if len(users) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, u := range users {
		u.CreatedAt, u.UpdatedAt = now, now
		if u.Lifecycle == "" {
			u.Lifecycle = entity.LifecycleActive
		}
	}

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&users).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Count returns the number of stored users.
func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.reader.NewSelect().Model((*entity.User)(nil)).Count(ctx)
}

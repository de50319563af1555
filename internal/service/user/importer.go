package user

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/jobstatus"
	restaurantrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	userrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/user"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/validation"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

var importTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/service/user")

// RequiredColumns must all be present in an import header.
var RequiredColumns = []string{"email", "password", "first_name", "last_name", "phone"}

const rowLimitExceeded = "row limit exceeded"

// ImporterParams defines dependencies for constructing an Importer.
type ImporterParams struct {
	fx.In

	Users       *userrepo.Repository
	Restaurants *restaurantrepo.Repository
	Status      *jobstatus.Store
	Validate    *validator.Validate
	Config      config.Config
	Logger      *zap.Logger
}

// Importer runs the body of a bulk user import job.
type Importer struct {
	users       *userrepo.Repository
	restaurants *restaurantrepo.Repository
	status      *jobstatus.Store
	validate    *validator.Validate
	maxRows     int
	bcryptCost  int
	statusTTL   time.Duration
	logger      *zap.Logger
}

// NewImporter wires an Importer.
func NewImporter(p ImporterParams) *Importer {
	return &Importer{
		users:       p.Users,
		restaurants: p.Restaurants,
		status:      p.Status,
		validate:    p.Validate,
		maxRows:     p.Config.Jobs.BulkImportMaxRows,
		bcryptCost:  p.Config.Security.BcryptCost,
		statusTTL:   p.Config.Jobs.StatusTTL,
		logger:      p.Logger,
	}
}

// ImportCSV parses content and imports it. Unreadable files are recorded as a
// job-level error.
func (im *Importer) ImportCSV(ctx context.Context, jobID string, content []byte) (dto.JobResult, error) {
	table, err := ParseCSV(content)
	if err != nil {
		result := newResult(jobID)
		jobError(&result, err.Error())
		im.save(ctx, result)
		return result, errorbank.Validation("unreadable import file", errorbank.WithFieldError("file", err.Error()))
	}
	return im.Import(ctx, jobID, table)
}

// Import validates every row independently and stores the accepted users
// with one batch insert. The result is always written to the status store.
//
// Structural problems (too many rows, missing columns) stop the job before
// any row is looked at and are returned as validation errors. Failures of the
// store itself are returned as transient errors so the runner retries the
// whole job; nothing is committed in that case.
func (im *Importer) Import(ctx context.Context, jobID string, table Table) (dto.JobResult, error) {
	ctx, span := importTracer.Start(ctx, "UserImporter.Import", trace.WithAttributes(
		attribute.String("job.id", jobID),
		attribute.Int("import.rows", len(table.Rows)),
	))
	defer span.End()

	result := newResult(jobID)

	if len(table.Rows) > im.maxRows {
		jobError(&result, rowLimitExceeded)
		im.save(ctx, result)
		span.SetStatus(codes.Error, rowLimitExceeded)
		return result, errorbank.Validation(rowLimitExceeded,
			errorbank.WithFieldError("file", fmt.Sprintf("at most %d rows are accepted per import", im.maxRows)))
	}
	for _, col := range RequiredColumns {
		if !table.HasColumn(col) {
			msg := "missing required column: " + col
			jobError(&result, msg)
			im.save(ctx, result)
			span.SetStatus(codes.Error, "missing column")
			return result, errorbank.Validation("invalid import file", errorbank.WithFieldError("file", msg))
		}
	}

	existing, err := im.users.Emails(ctx)
	if err != nil {
		return im.fail(ctx, span, result, "load existing emails", err)
	}
	restaurants, err := im.restaurants.ActiveIDs(ctx)
	if err != nil {
		return im.fail(ctx, span, result, "load restaurants", err)
	}

	result.Total = len(table.Rows)
	seen := make(map[string]struct{}, len(table.Rows))
	accepted := make([]*entity.User, 0, len(table.Rows))

	for i, row := range table.Rows {
		line := i + 1
		user, err := im.candidate(row, existing, seen, restaurants)
		if err != nil {
			result.Errors = append(result.Errors, dto.RowError{
				Line:  line,
				Email: strings.TrimSpace(row["email"]),
				Error: err.Error(),
			})
			continue
		}
		seen[strings.ToLower(user.Email)] = struct{}{}
		accepted = append(accepted, user)
		result.Details = append(result.Details, dto.RowDetail{Line: line, Email: user.Email, Status: "success"})
	}

	if err := im.users.CreateBatch(ctx, accepted); err != nil {
		result.Details = []dto.RowDetail{}
		return im.fail(ctx, span, result, "bulk insert", err)
	}
	result.Success = len(accepted)
	im.save(ctx, result)

	im.logger.Info("bulk user import finished",
		zap.String("job_id", jobID),
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// candidate builds and validates the user for one row.
func (im *Importer) candidate(row map[string]string, existing, seen map[string]struct{}, restaurants map[int64]struct{}) (*entity.User, error) {
	email := strings.TrimSpace(row["email"])
	if email == "" {
		return nil, errors.New("email must not be empty")
	}
	key := strings.ToLower(email)
	if _, taken := existing[key]; taken {
		return nil, errors.New("email already registered")
	}
	if _, dup := seen[key]; dup {
		return nil, errors.New("duplicate email in file")
	}

	user := &entity.User{
		Email:     email,
		FirstName: strings.TrimSpace(row["first_name"]),
		LastName:  strings.TrimSpace(row["last_name"]),
		Phone:     strings.TrimSpace(row["phone"]),
		Lifecycle: entity.LifecycleActive,
	}
	if addr := strings.TrimSpace(row["default_address"]); addr != "" {
		user.DefaultAddress = &addr
	}
	if raw := strings.TrimSpace(row["restaurant_id"]); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.New("restaurant_id must be an integer")
		}
		if _, ok := restaurants[id]; !ok {
			return nil, errors.New("restaurant_id is not valid")
		}
		user.RestaurantID = &id
	}

	password := row["password"]
	if password == "" {
		return nil, errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), im.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := im.validate.Struct(user); err != nil {
		return nil, errors.New(joinFieldErrors(validation.FieldErrors(err)))
	}
	return user, nil
}

func (im *Importer) fail(ctx context.Context, span trace.Span, result dto.JobResult, step string, err error) (dto.JobResult, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, step+" failed")

	result.Success = 0
	jobError(&result, fmt.Sprintf("%s failed: %v", step, err))
	im.save(ctx, result)
	return result, errorbank.Transient(step+" failed", errorbank.WithCause(err))
}

func (im *Importer) save(ctx context.Context, result dto.JobResult) {
	if err := im.status.Put(ctx, result.TaskID, result, im.statusTTL); err != nil {
		im.logger.Error("failed to record import status", zap.String("job_id", result.TaskID), zap.Error(err))
	}
}

func newResult(jobID string) dto.JobResult {
	return dto.JobResult{TaskID: jobID, Status: dto.JobCompleted, Errors: []dto.RowError{}, Details: []dto.RowDetail{}}
}

// jobError records an error that stopped every row.
func jobError(result *dto.JobResult, msg string) {
	result.Status = dto.JobFailed
	result.Errors = append(result.Errors, dto.RowError{Line: 0, Error: msg})
}

func joinFieldErrors(fields map[string][]string) string {
	if len(fields) == 0 {
		return "invalid user record"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

package business

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sk123/theyownwhat-sub000/pkg/database"
	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// Repository reads the imported business registrations. Businesses are a
// reference table: the pipeline never mutates them.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new business repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListAll returns every business registration.
func (r *Repository) ListAll(ctx context.Context) ([]models.Business, error) {
	ctx, span := tracing.StartSpan(ctx, "business.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "name_normalized", "contact_email", "mailing_address", "created_at")
	sb.From("businesses")
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var businesses []models.Business
	if err := r.db.SelectContext(ctx, &businesses, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list businesses")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list businesses")
	}

	return businesses, nil
}

// Get retrieves a business by ID.
func (r *Repository) Get(ctx context.Context, id string) (*models.Business, error) {
	ctx, span := tracing.StartSpan(ctx, "business.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "name_normalized", "contact_email", "mailing_address", "created_at")
	sb.From("businesses")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var business models.Business
	if err := r.db.GetContext(ctx, &business, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("business %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get business")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get business")
	}

	return &business, nil
}

// Count returns the number of business registrations.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "business.Repository.Count")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("businesses")

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count businesses")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count businesses")
	}

	return count, nil
}

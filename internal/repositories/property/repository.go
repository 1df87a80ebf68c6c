package property

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sk123/theyownwhat-sub000/pkg/database"
	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// Repository reads property records and maintains their derived link
// columns. Only the linker writes business_id/principal_id.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new property repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListAll returns every property record.
func (r *Repository) ListAll(ctx context.Context) ([]models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.ListAll")
	defer span.End()

	return r.list(ctx, false)
}

// ListUnlinked returns properties with no resolved entity. The default
// (non-forced) rebuild only re-examines these.
func (r *Repository) ListUnlinked(ctx context.Context) ([]models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.ListUnlinked")
	defer span.End()

	return r.list(ctx, true)
}

func (r *Repository) list(ctx context.Context, unlinkedOnly bool) ([]models.Property, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "owner", "co_owner", "owner_address", "business_id", "principal_id")
	sb.From("properties")
	if unlinkedOnly {
		sb.Where(
			sb.IsNull("business_id"),
			sb.IsNull("principal_id"),
		)
	}
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var properties []models.Property
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list properties")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list properties")
	}

	return properties, nil
}

// ClearLinks resets every property's link columns. A forced rebuild calls
// this before re-linking so stale resolutions cannot survive rule changes.
func (r *Repository) ClearLinks(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.ClearLinks")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("properties")
	sb.Set(
		sb.Assign("business_id", nil),
		sb.Assign("principal_id", nil),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to clear property links")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear property links")
	}

	rows, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{"cleared": rows}).Info("Cleared property links")
	return rows, nil
}

// SetBusinessLink resolves a property to a business and clears any
// principal link. Business resolution always wins.
func (r *Repository) SetBusinessLink(ctx context.Context, propertyID, businessID string) error {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.SetBusinessLink")
	defer span.End()

	return r.setLink(ctx, propertyID, &businessID, nil)
}

// SetPrincipalLink resolves a property to a canonical principal.
func (r *Repository) SetPrincipalLink(ctx context.Context, propertyID, principalID string) error {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.SetPrincipalLink")
	defer span.End()

	return r.setLink(ctx, propertyID, nil, &principalID)
}

func (r *Repository) setLink(ctx context.Context, propertyID string, businessID, principalID *string) error {
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("properties")
	sb.Set(
		sb.Assign("business_id", businessID),
		sb.Assign("principal_id", principalID),
	)
	sb.Where(sb.Equal("id", propertyID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"property_id": propertyID}).Error("Failed to set property link")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set property link")
	}

	return nil
}

// CountByLinkState returns how many properties are linked and unlinked.
func (r *Repository) CountByLinkState(ctx context.Context) (linked int, unlinked int, err error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.CountByLinkState")
	defer span.End()

	query := `
		SELECT
			COUNT(*) FILTER (WHERE business_id IS NOT NULL OR principal_id IS NOT NULL) AS linked,
			COUNT(*) FILTER (WHERE business_id IS NULL AND principal_id IS NULL) AS unlinked
		FROM properties
	`

	var counts struct {
		Linked   int `db:"linked"`
		Unlinked int `db:"unlinked"`
	}
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count properties by link state")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count properties")
	}

	return counts.Linked, counts.Unlinked, nil
}

// CountLinkedByEntity returns property counts per linked entity, keyed by
// (kind, id). The namer weights candidate names by these counts.
func (r *Repository) CountLinkedByEntity(ctx context.Context) (map[models.EntityKind]map[string]int, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.CountLinkedByEntity")
	defer span.End()

	counts := map[models.EntityKind]map[string]int{
		models.EntityKindBusiness:  {},
		models.EntityKindPrincipal: {},
	}

	query := `
		SELECT business_id AS entity_id, COUNT(*) AS property_count
		FROM properties
		WHERE business_id IS NOT NULL
		GROUP BY business_id
	`
	var rows []struct {
		EntityID      string `db:"entity_id"`
		PropertyCount int    `db:"property_count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count properties by business")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count properties by entity")
	}
	for _, row := range rows {
		counts[models.EntityKindBusiness][row.EntityID] = row.PropertyCount
	}

	query = `
		SELECT principal_id AS entity_id, COUNT(*) AS property_count
		FROM properties
		WHERE principal_id IS NOT NULL
		GROUP BY principal_id
	`
	rows = rows[:0]
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count properties by principal")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count properties by entity")
	}
	for _, row := range rows {
		counts[models.EntityKindPrincipal][row.EntityID] = row.PropertyCount
	}

	return counts, nil
}

package principal

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/sk123/theyownwhat-sub000/pkg/database"
	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// insertBatchSize bounds the rows per INSERT so the statement stays under
// Postgres's 65535 bind-parameter limit.
const insertBatchSize = 500

// Repository reads raw principal rows and persists the canonical principals
// the deduplicator resolves them to.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new principal repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListRaw returns every scraped principal row, ordered by ID so that
// first-seen display-name selection is deterministic.
func (r *Repository) ListRaw(ctx context.Context) ([]models.RawPrincipal, error) {
	ctx, span := tracing.StartSpan(ctx, "principal.Repository.ListRaw")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "business_id", "raw_name", "email", "address")
	sb.From("raw_principals")
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var principals []models.RawPrincipal
	if err := r.db.SelectContext(ctx, &principals, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list raw principals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list raw principals")
	}

	return principals, nil
}

// ListCanonical returns the current canonical principal set.
func (r *Repository) ListCanonical(ctx context.Context) ([]models.CanonicalPrincipal, error) {
	ctx, span := tracing.StartSpan(ctx, "principal.Repository.ListCanonical")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("principal_id", "normalized_name", "normalized_email", "display_name", "business_count", "group_key", "created_at")
	sb.From("canonical_principals")
	sb.OrderBy("principal_id ASC")

	query, args := sb.Build()
	var principals []models.CanonicalPrincipal
	if err := r.db.SelectContext(ctx, &principals, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list canonical principals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list canonical principals")
	}

	return principals, nil
}

// ListLinks returns every principal-business link.
func (r *Repository) ListLinks(ctx context.Context) ([]models.PrincipalBusinessLink, error) {
	ctx, span := tracing.StartSpan(ctx, "principal.Repository.ListLinks")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("principal_id", "business_id")
	sb.From("principal_business_links")
	sb.OrderBy("principal_id ASC", "business_id ASC")

	query, args := sb.Build()
	var links []models.PrincipalBusinessLink
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list principal business links")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list principal business links")
	}

	return links, nil
}

// ReplaceCanonical atomically replaces the canonical principal set and its
// business links with the output of a dedupe pass. Done in one transaction
// so readers never observe a half-written set.
func (r *Repository) ReplaceCanonical(ctx context.Context, principals []models.CanonicalPrincipal, links []models.PrincipalBusinessLink) error {
	ctx, span := tracing.StartSpan(ctx, "principal.Repository.ReplaceCanonical")
	defer span.End()

	err := database.WithinTx(ctx, r.db, r.logger, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM principal_business_links"); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to clear principal business links")
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM canonical_principals"); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to clear canonical principals")
			return err
		}

		for start := 0; start < len(principals); start += insertBatchSize {
			end := min(start+insertBatchSize, len(principals))

			sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
			sb.InsertInto("canonical_principals")
			sb.Cols("principal_id", "normalized_name", "normalized_email", "display_name", "business_count", "group_key", "created_at")
			for _, p := range principals[start:end] {
				sb.Values(p.PrincipalID, p.NormalizedName, p.NormalizedEmail, p.DisplayName, p.BusinessCount, p.GroupKey, p.CreatedAt)
			}

			query, args := sb.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				r.logger.WithContext(ctx).WithError(err).Error("Failed to insert canonical principals")
				return err
			}
		}

		for start := 0; start < len(links); start += insertBatchSize {
			end := min(start+insertBatchSize, len(links))

			sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
			sb.InsertInto("principal_business_links")
			sb.Cols("principal_id", "business_id")
			for _, l := range links[start:end] {
				sb.Values(l.PrincipalID, l.BusinessID)
			}

			query, args := sb.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				r.logger.WithContext(ctx).WithError(err).Error("Failed to insert principal business links")
				return err
			}
		}

		return nil
	})
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace canonical principals")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"principals": len(principals),
		"links":      len(links),
	}).Info("Replaced canonical principals")
	return nil
}

package network

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

const insertBatchSize = 500

// resetStatements rebuild the shadow tables from the live schema so a
// publish can never race a drifted migration.
var resetStatements = []string{
	"DROP TABLE IF EXISTS network_memberships_shadow",
	"DROP TABLE IF EXISTS networks_shadow",
	"CREATE TABLE networks_shadow (LIKE networks INCLUDING ALL)",
	"CREATE TABLE network_memberships_shadow (LIKE network_memberships INCLUDING ALL)",
}

// cutoverStatements swap the shadow tables into place. Postgres DDL is
// transactional, so readers see either the old snapshot or the new one,
// never a mix.
var cutoverStatements = []string{
	"ALTER TABLE networks RENAME TO networks_retired",
	"ALTER TABLE network_memberships RENAME TO network_memberships_retired",
	"ALTER TABLE networks_shadow RENAME TO networks",
	"ALTER TABLE network_memberships_shadow RENAME TO network_memberships",
	"DROP TABLE network_memberships_retired",
	"DROP TABLE networks_retired",
}

// Repository persists discovered networks. Writes land in shadow tables;
// Cutover atomically swaps them with the live snapshot.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new network repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ResetShadow rebuilds empty shadow tables from the live schema ahead of a
// publish.
func (r *Repository) ResetShadow(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "network.Repository.ResetShadow")
	defer span.End()

	for _, stmt := range resetStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"statement": stmt}).Error("Failed to reset shadow tables")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reset shadow tables")
		}
	}

	return nil
}

// InsertShadow writes networks and memberships into the shadow tables.
func (r *Repository) InsertShadow(ctx context.Context, networks []models.Network, memberships []models.NetworkMembership) error {
	ctx, span := tracing.StartSpan(ctx, "network.Repository.InsertShadow")
	defer span.End()

	for start := 0; start < len(networks); start += insertBatchSize {
		end := min(start+insertBatchSize, len(networks))

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("networks_shadow")
		sb.Cols("network_id", "primary_name", "business_count", "principal_count", "created_at")
		for _, n := range networks[start:end] {
			sb.Values(n.NetworkID, n.PrimaryName, n.BusinessCount, n.PrincipalCount, n.CreatedAt)
		}

		query, args := sb.Build()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to insert shadow networks")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert shadow networks")
		}
	}

	for start := 0; start < len(memberships); start += insertBatchSize {
		end := min(start+insertBatchSize, len(memberships))

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("network_memberships_shadow")
		sb.Cols("network_id", "entity_kind", "entity_id", "display_name", "normalized_name")
		for _, m := range memberships[start:end] {
			sb.Values(m.NetworkID, m.EntityKind, m.EntityID, m.DisplayName, m.NormalizedName)
		}

		query, args := sb.Build()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to insert shadow memberships")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert shadow memberships")
		}
	}

	return nil
}

// CountLive returns the row counts of the published snapshot, used for the
// pre-cutover delta check.
func (r *Repository) CountLive(ctx context.Context) (networks int, memberships int, err error) {
	ctx, span := tracing.StartSpan(ctx, "network.Repository.CountLive")
	defer span.End()

	if err := r.db.GetContext(ctx, &networks, "SELECT COUNT(*) FROM networks"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count live networks")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count networks")
	}
	if err := r.db.GetContext(ctx, &memberships, "SELECT COUNT(*) FROM network_memberships"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count live memberships")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count memberships")
	}

	return networks, memberships, nil
}

// Cutover promotes the shadow tables to live and drops the retired
// snapshot, all in a single transaction.
func (r *Repository) Cutover(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "network.Repository.Cutover")
	defer span.End()

	err := database.WithinTx(ctx, r.db, r.logger, func(tx *sqlx.Tx) error {
		for _, stmt := range cutoverStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"statement": stmt}).Error("Failed cutover statement")
				return err
			}
		}
		return nil
	})
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to cut over networks")
	}

	r.logger.WithContext(ctx).Info("Network snapshot cutover complete")
	return nil
}

// ListNetworks returns the published networks, largest first.
func (r *Repository) ListNetworks(ctx context.Context, limit int) ([]models.Network, error) {
	ctx, span := tracing.StartSpan(ctx, "network.Repository.ListNetworks")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("network_id", "primary_name", "business_count", "principal_count", "created_at")
	sb.From("networks")
	sb.OrderBy("business_count + principal_count DESC", "network_id ASC")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	var networks []models.Network
	if err := r.db.SelectContext(ctx, &networks, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list networks")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list networks")
	}

	return networks, nil
}

// ListMemberships returns the published memberships for one network.
func (r *Repository) ListMemberships(ctx context.Context, networkID string) ([]models.NetworkMembership, error) {
	ctx, span := tracing.StartSpan(ctx, "network.Repository.ListMemberships")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("network_id", "entity_kind", "entity_id", "display_name", "normalized_name")
	sb.From("network_memberships")
	sb.Where(sb.Equal("network_id", networkID))
	sb.OrderBy("entity_kind ASC", "entity_id ASC")

	query, args := sb.Build()
	var memberships []models.NetworkMembership
	if err := r.db.SelectContext(ctx, &memberships, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list network memberships")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list network memberships")
	}

	return memberships, nil
}

// ListAllMemberships streams the full membership table, used by the graph
// projection.
func (r *Repository) ListAllMemberships(ctx context.Context) ([]models.NetworkMembership, error) {
	ctx, span := tracing.StartSpan(ctx, "network.Repository.ListAllMemberships")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("network_id", "entity_kind", "entity_id", "display_name", "normalized_name")
	sb.From("network_memberships")
	sb.OrderBy("network_id ASC", "entity_kind ASC", "entity_id ASC")

	query, args := sb.Build()
	var memberships []models.NetworkMembership
	if err := r.db.SelectContext(ctx, &memberships, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list all network memberships")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list network memberships")
	}

	return memberships, nil
}

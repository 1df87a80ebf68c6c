package run

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/sk123/theyownwhat-sub000/pkg/database"
	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// Repository persists pipeline run summaries.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Save upserts a run summary. Called once when the run starts and again
// with final counts when it finishes, keyed by run_id.
func (r *Repository) Save(ctx context.Context, runRecord *models.PipelineRun) error {
	ctx, span := tracing.StartSpan(ctx, "run.Repository.Save")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("pipeline_runs")
	ib.Cols(
		"run_id", "status", "forced",
		"principals_in", "principals_dropped", "canonical_count",
		"properties_linked", "properties_unlinked",
		"edge_count", "network_count", "membership_count", "warning_count",
		"started_at", "finished_at", "error",
	)
	ib.Values(
		runRecord.RunID, runRecord.Status, runRecord.Forced,
		runRecord.PrincipalsIn, runRecord.PrincipalsDropped, runRecord.CanonicalCount,
		runRecord.PropertiesLinked, runRecord.PropertiesUnlinked,
		runRecord.EdgeCount, runRecord.NetworkCount, runRecord.MembershipCount, runRecord.WarningCount,
		runRecord.StartedAt, runRecord.FinishedAt, runRecord.Error,
	)

	ub := ib.OnConflict("run_id")
	ub.Set(
		ub.Assign("status", database.Excluded("status")),
		ub.Assign("principals_in", database.Excluded("principals_in")),
		ub.Assign("principals_dropped", database.Excluded("principals_dropped")),
		ub.Assign("canonical_count", database.Excluded("canonical_count")),
		ub.Assign("properties_linked", database.Excluded("properties_linked")),
		ub.Assign("properties_unlinked", database.Excluded("properties_unlinked")),
		ub.Assign("edge_count", database.Excluded("edge_count")),
		ub.Assign("network_count", database.Excluded("network_count")),
		ub.Assign("membership_count", database.Excluded("membership_count")),
		ub.Assign("warning_count", database.Excluded("warning_count")),
		ub.Assign("finished_at", database.Excluded("finished_at")),
		ub.Assign("error", database.Excluded("error")),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runRecord.RunID}).Error("Failed to save pipeline run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save pipeline run")
	}

	return nil
}

// GetLatest returns the most recent run, or nil when none has executed.
func (r *Repository) GetLatest(ctx context.Context) (*models.PipelineRun, error) {
	ctx, span := tracing.StartSpan(ctx, "run.Repository.GetLatest")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"run_id", "status", "forced",
		"principals_in", "principals_dropped", "canonical_count",
		"properties_linked", "properties_unlinked",
		"edge_count", "network_count", "membership_count", "warning_count",
		"started_at", "finished_at", "error",
	)
	sb.From("pipeline_runs")
	sb.OrderBy("started_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var runRecord models.PipelineRun
	if err := r.db.GetContext(ctx, &runRecord, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get latest pipeline run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get latest pipeline run")
	}

	return &runRecord, nil
}

// List returns recent runs, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	ctx, span := tracing.StartSpan(ctx, "run.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"run_id", "status", "forced",
		"principals_in", "principals_dropped", "canonical_count",
		"properties_linked", "properties_unlinked",
		"edge_count", "network_count", "membership_count", "warning_count",
		"started_at", "finished_at", "error",
	)
	sb.From("pipeline_runs")
	sb.OrderBy("started_at DESC")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	var runs []models.PipelineRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list pipeline runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list pipeline runs")
	}

	return runs, nil
}

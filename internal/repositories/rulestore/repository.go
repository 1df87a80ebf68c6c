// Package rulestore loads the operator-maintained rule tables. These are
// small reference tables edited out of band; the pipeline only reads them.
package rulestore

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

// Repository reads the email, ignored-principal and agent-address tables.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new rule repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListEmailRules returns every email domain classification.
func (r *Repository) ListEmailRules(ctx context.Context) ([]models.EmailRule, error) {
	ctx, span := tracing.StartSpan(ctx, "rulestore.Repository.ListEmailRules")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("domain", "class")
	sb.From("email_rules")

	query, args := sb.Build()
	var rules []models.EmailRule
	if err := r.db.SelectContext(ctx, &rules, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list email rules")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list email rules")
	}

	return rules, nil
}

// ListIgnoredPrincipals returns the principal ignore list.
func (r *Repository) ListIgnoredPrincipals(ctx context.Context) ([]models.IgnoredPrincipal, error) {
	ctx, span := tracing.StartSpan(ctx, "rulestore.Repository.ListIgnoredPrincipals")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("normalized_name")
	sb.From("ignored_principals")

	query, args := sb.Build()
	var ignored []models.IgnoredPrincipal
	if err := r.db.SelectContext(ctx, &ignored, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list ignored principals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list ignored principals")
	}

	return ignored, nil
}

// ListAgentAddresses returns the registered-agent address deny list.
func (r *Repository) ListAgentAddresses(ctx context.Context) ([]models.AgentAddress, error) {
	ctx, span := tracing.StartSpan(ctx, "rulestore.Repository.ListAgentAddresses")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("normalized_address")
	sb.From("agent_addresses")

	query, args := sb.Build()
	var agents []models.AgentAddress
	if err := r.db.SelectContext(ctx, &agents, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list agent addresses")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list agent addresses")
	}

	return agents, nil
}

// Package graph mirrors the published network snapshot into a
// Neo4j-compatible database over Bolt, for ad-hoc exploration outside
// Postgres. The projection is derived state: it is wiped and rebuilt after
// each publish.
package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

const projectionBatchSize = 1000

// Config holds graph database connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Projector owns the Bolt driver and writes snapshots into the graph.
type Projector struct {
	driver neo4j.DriverWithContext
	logger ectologger.Logger
}

// Connect opens a driver and verifies the database is reachable.
func Connect(ctx context.Context, cfg Config, logger ectologger.Logger) (*Projector, error) {
	uri := fmt.Sprintf("bolt://%s:%d", cfg.Host, cfg.Port)

	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx) //nolint:errcheck
		return nil, fmt.Errorf("graph database unreachable: %w", err)
	}

	return &Projector{
		driver: driver,
		logger: logger,
	}, nil
}

// Close closes the underlying driver.
func (p *Projector) Close(ctx context.Context) error {
	return p.driver.Close(ctx)
}

// write runs one write transaction on a fresh session.
func (p *Projector) write(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) error {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, work)
	return err
}

// Project replaces the graph projection with the given snapshot.
func (p *Projector) Project(ctx context.Context, networks []models.Network, memberships []models.NetworkMembership) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.Project")
	defer span.End()

	if err := p.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, "MATCH (n) WHERE n:Network OR n:Business OR n:Principal DETACH DELETE n", nil)
		return nil, err
	}); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to clear graph projection")
		return err
	}

	for start := 0; start < len(networks); start += projectionBatchSize {
		end := min(start+projectionBatchSize, len(networks))
		batch := make([]map[string]any, 0, end-start)
		for _, n := range networks[start:end] {
			batch = append(batch, map[string]any{
				"network_id":      n.NetworkID,
				"primary_name":    n.PrimaryName,
				"business_count":  n.BusinessCount,
				"principal_count": n.PrincipalCount,
			})
		}

		if err := p.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, `
				UNWIND $rows AS row
				MERGE (n:Network {network_id: row.network_id})
				SET n.primary_name = row.primary_name,
				    n.business_count = row.business_count,
				    n.principal_count = row.principal_count
			`, map[string]any{"rows": batch})
			return nil, err
		}); err != nil {
			p.logger.WithContext(ctx).WithError(err).Error("Failed to project networks")
			return err
		}
	}

	for start := 0; start < len(memberships); start += projectionBatchSize {
		end := min(start+projectionBatchSize, len(memberships))
		batch := make([]map[string]any, 0, end-start)
		for _, m := range memberships[start:end] {
			batch = append(batch, map[string]any{
				"network_id":   m.NetworkID,
				"entity_kind":  string(m.EntityKind),
				"entity_id":    m.EntityID,
				"display_name": m.DisplayName,
			})
		}

		if err := p.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, `
				UNWIND $rows AS row
				MATCH (n:Network {network_id: row.network_id})
				FOREACH (_ IN CASE WHEN row.entity_kind = 'business' THEN [1] ELSE [] END |
					MERGE (b:Business {entity_id: row.entity_id})
					SET b.display_name = row.display_name
					MERGE (b)-[:MEMBER_OF]->(n)
				)
				FOREACH (_ IN CASE WHEN row.entity_kind = 'principal' THEN [1] ELSE [] END |
					MERGE (p:Principal {entity_id: row.entity_id})
					SET p.display_name = row.display_name
					MERGE (p)-[:MEMBER_OF]->(n)
				)
			`, map[string]any{"rows": batch})
			return nil, err
		}); err != nil {
			p.logger.WithContext(ctx).WithError(err).Error("Failed to project memberships")
			return err
		}
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"networks":    len(networks),
		"memberships": len(memberships),
	}).Info("Projected network snapshot to graph")

	return nil
}

// Package pipeline orchestrates a rebuild run: canonicalize, deduplicate,
// link, build the relationship graph, discover networks, and publish.
// All state for a run lives in the run summary and locals; the pipeline
// holds only injected dependencies.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/sk123/theyownwhat-sub000/config"
	"github.com/sk123/theyownwhat-sub000/pkg/dedupe"
	"github.com/sk123/theyownwhat-sub000/pkg/discovery"
	"github.com/sk123/theyownwhat-sub000/pkg/linking"
	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/normalizers"
	"github.com/sk123/theyownwhat-sub000/pkg/pipelineerrors"
	"github.com/sk123/theyownwhat-sub000/pkg/relgraph"
	"github.com/sk123/theyownwhat-sub000/pkg/rules"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// BusinessStore loads business registrations.
type BusinessStore interface {
	ListAll(ctx context.Context) ([]models.Business, error)
}

// PrincipalStore loads raw principals and persists canonical ones.
type PrincipalStore interface {
	ListRaw(ctx context.Context) ([]models.RawPrincipal, error)
	ReplaceCanonical(ctx context.Context, principals []models.CanonicalPrincipal, links []models.PrincipalBusinessLink) error
}

// PropertyStore loads properties and maintains their link columns.
type PropertyStore interface {
	ListAll(ctx context.Context) ([]models.Property, error)
	ListUnlinked(ctx context.Context) ([]models.Property, error)
	ClearLinks(ctx context.Context) (int64, error)
	SetBusinessLink(ctx context.Context, propertyID, businessID string) error
	SetPrincipalLink(ctx context.Context, propertyID, principalID string) error
	CountByLinkState(ctx context.Context) (linked int, unlinked int, err error)
	CountLinkedByEntity(ctx context.Context) (map[models.EntityKind]map[string]int, error)
}

// RuleStore loads the operator rule tables.
type RuleStore interface {
	ListEmailRules(ctx context.Context) ([]models.EmailRule, error)
	ListIgnoredPrincipals(ctx context.Context) ([]models.IgnoredPrincipal, error)
	ListAgentAddresses(ctx context.Context) ([]models.AgentAddress, error)
}

// RunStore persists run summaries.
type RunStore interface {
	Save(ctx context.Context, runRecord *models.PipelineRun) error
}

// SnapshotPublisher replaces the live network snapshot.
type SnapshotPublisher interface {
	Publish(ctx context.Context, networks []models.Network, memberships []models.NetworkMembership) (int, error)
}

// SnapshotSink receives the published snapshot after cutover. Optional.
type SnapshotSink interface {
	Project(ctx context.Context, networks []models.Network, memberships []models.NetworkMembership) error
}

// RunNotifier announces run outcomes. Optional.
type RunNotifier interface {
	EmitRunCompleted(ctx context.Context, summary *models.PipelineRun)
	EmitRunFailed(ctx context.Context, runID string, runErr error)
	EmitNetworksPublished(ctx context.Context, runID string, networkCount, membershipCount int)
}

// Pipeline wires the rebuild phases together.
type Pipeline struct {
	cfg        *config.Config
	businesses BusinessStore
	principals PrincipalStore
	properties PropertyStore
	ruleTables RuleStore
	runs       RunStore
	publisher  SnapshotPublisher
	sink       SnapshotSink
	notifier   RunNotifier
	logger     ectologger.Logger
	now        func() time.Time
}

// New creates a pipeline. sink and notifier may be nil.
func New(
	cfg *config.Config,
	businesses BusinessStore,
	principals PrincipalStore,
	properties PropertyStore,
	ruleTables RuleStore,
	runs RunStore,
	publisher SnapshotPublisher,
	sink SnapshotSink,
	notifier RunNotifier,
	logger ectologger.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		businesses: businesses,
		principals: principals,
		properties: properties,
		ruleTables: ruleTables,
		runs:       runs,
		publisher:  publisher,
		sink:       sink,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one rebuild. force re-links every property instead of only
// the unlinked ones. The returned summary is persisted in either outcome;
// the caller holds the rebuild lock.
func (p *Pipeline) Run(ctx context.Context, force bool) (*models.PipelineRun, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.Run")
	defer span.End()

	summary := &models.PipelineRun{
		RunID:     uuid.New().String(),
		Status:    "running",
		Forced:    force,
		StartedAt: p.now().UTC(),
	}
	if err := p.runs.Save(ctx, summary); err != nil {
		return summary, err
	}

	log := p.logger.WithContext(ctx).WithFields(map[string]any{"run_id": summary.RunID, "forced": force})
	log.Info("Rebuild run started")

	err := p.execute(ctx, summary)

	finished := p.now().UTC()
	summary.FinishedAt = &finished
	if err != nil {
		summary.Status = "failed"
		msg := err.Error()
		summary.Error = &msg
		log.WithError(err).WithFields(map[string]any{
			"error_kind": string(pipelineerrors.KindOf(err)),
			"phase":      pipelineerrors.PhaseOf(err),
		}).Error("Rebuild run failed")
	} else {
		summary.Status = "succeeded"
		log.WithFields(map[string]any{
			"networks":    summary.NetworkCount,
			"memberships": summary.MembershipCount,
			"warnings":    summary.WarningCount,
		}).Info("Rebuild run succeeded")
	}

	if saveErr := p.runs.Save(ctx, summary); saveErr != nil {
		log.WithError(saveErr).Error("Failed to persist run summary")
	}

	if p.notifier != nil {
		if err != nil {
			p.notifier.EmitRunFailed(ctx, summary.RunID, err)
		} else {
			p.notifier.EmitRunCompleted(ctx, summary)
		}
	}

	return summary, err
}

func (p *Pipeline) execute(ctx context.Context, summary *models.PipelineRun) error {
	ruleset := p.loadRuleset(ctx, summary)

	businesses, err := p.businesses.ListAll(ctx)
	if err != nil {
		return pipelineerrors.Wrap(pipelineerrors.KindInfrastructure, "load", err)
	}
	raws, err := p.principals.ListRaw(ctx)
	if err != nil {
		return pipelineerrors.Wrap(pipelineerrors.KindInfrastructure, "load", err)
	}

	// Deduplicate principals.
	deduper := dedupe.NewDeduplicator(ruleset, p.logger, p.now)
	dedupeResult := deduper.Run(ctx, raws)
	summary.PrincipalsIn = len(raws)
	summary.PrincipalsDropped = dedupeResult.Dropped
	summary.CanonicalCount = len(dedupeResult.Principals)

	if err := p.principals.ReplaceCanonical(ctx, dedupeResult.Principals, dedupeResult.Links); err != nil {
		return pipelineerrors.Wrap(pipelineerrors.KindInfrastructure, "dedupe", err)
	}

	// Link properties.
	var toLink []models.Property
	if summary.Forced {
		if _, err := p.properties.ClearLinks(ctx); err != nil {
			return pipelineerrors.Wrap(pipelineerrors.KindInfrastructure, "linking", err)
		}
		toLink, err = p.properties.ListAll(ctx)
	} else {
		toLink, err = p.properties.ListUnlinked(ctx)
	}
	if err != nil {
		return pipelineerrors.Wrap(pipelineerrors.KindInfrastructure, "linking", err)
	}

	index := linking.BuildIndex(businesses, raws, dedupeResult.RawToPrincipal, dedupeResult.Principals, ruleset)
	linker := linking.NewLinker(index, p.logger)
	for _, outcome := range linker.Run(ctx, toLink) {
		switch {
		case outcome.BusinessID != nil:
			err = p.properties.SetBusinessLink(ctx, outcome.PropertyID, *outcome.BusinessID)
		case outcome.PrincipalID != nil:
			err = p.properties.SetPrincipalLink(ctx, outcome.PropertyID, *outcome.PrincipalID)
		}
		if err != nil {
			return pipelineerrors.Wrap(pipelineerrors.KindInfrastructure, "linking", err)
		}
	}

	linked, unlinked, err := p.properties.CountByLinkState(ctx)
	if err != nil {
		return pipelineerrors.Wrap(pipelineerrors.KindInfrastructure, "linking", err)
	}
	summary.PropertiesLinked = linked
	summary.PropertiesUnlinked = unlinked

	// Build the relationship graph.
	builder := relgraph.NewBuilder(ruleset, p.cfg.EmailGroupMaxSize, p.cfg.AddressGroupMaxSize, p.logger)
	buildResult := builder.Build(ctx, businesses, dedupeResult.Principals, dedupeResult.Links)
	summary.EdgeCount = buildResult.Graph.EdgeCount()
	summary.WarningCount += buildResult.DroppedEmailGroups + buildResult.DroppedAddressGroups

	// Discover networks from property-linked seeds.
	propertyCounts, err := p.properties.CountLinkedByEntity(ctx)
	if err != nil {
		return pipelineerrors.Wrap(pipelineerrors.KindInfrastructure, "discovery", err)
	}
	seeds := collectSeeds(buildResult.Graph.Arena(), propertyCounts)

	discoverer := discovery.NewDiscoverer(p.cfg.NetworkMaxDepth, p.logger)
	components := discoverer.Run(ctx, buildResult.Graph, seeds)

	networks, memberships := p.assemble(components, buildResult.Graph.Arena(), businesses, dedupeResult, propertyCounts, ruleset)
	summary.NetworkCount = len(networks)
	summary.MembershipCount = len(memberships)

	// Publish.
	warnings, err := p.publisher.Publish(ctx, networks, memberships)
	summary.WarningCount += warnings
	if err != nil {
		return pipelineerrors.Wrap(pipelineerrors.KindInfrastructure, "publish", err)
	}

	if p.notifier != nil {
		p.notifier.EmitNetworksPublished(ctx, summary.RunID, len(networks), len(memberships))
	}
	if p.sink != nil {
		if err := p.sink.Project(ctx, networks, memberships); err != nil {
			// The snapshot is already live; projection failure is a warning.
			summary.WarningCount++
			p.logger.WithContext(ctx).WithError(err).Warn("Snapshot projection failed")
		}
	}

	return nil
}

// loadRuleset loads the operator rule tables. A failed table load degrades
// to no signal from that table and counts as a run warning.
func (p *Pipeline) loadRuleset(ctx context.Context, summary *models.PipelineRun) *rules.Ruleset {
	emailRules, err := p.ruleTables.ListEmailRules(ctx)
	if err != nil {
		summary.WarningCount++
		p.logger.WithContext(ctx).WithError(err).Warn("Email rules unavailable, continuing without")
	}
	ignored, err := p.ruleTables.ListIgnoredPrincipals(ctx)
	if err != nil {
		summary.WarningCount++
		p.logger.WithContext(ctx).WithError(err).Warn("Ignored principals unavailable, continuing without")
	}
	agents, err := p.ruleTables.ListAgentAddresses(ctx)
	if err != nil {
		summary.WarningCount++
		p.logger.WithContext(ctx).WithError(err).Warn("Agent addresses unavailable, continuing without")
	}

	return rules.New(emailRules, ignored, agents)
}

// collectSeeds maps property-linked entities onto arena indexes. Entities
// unknown to the graph (stale links) are skipped.
func collectSeeds(arena *relgraph.Arena, propertyCounts map[models.EntityKind]map[string]int) []int {
	var seeds []int
	for kind, byID := range propertyCounts {
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if i, ok := arena.Lookup(kind, id); ok {
				seeds = append(seeds, i)
			}
		}
	}
	return seeds
}

// assemble turns discovered components into persistable networks and
// memberships, naming each one.
func (p *Pipeline) assemble(
	components []discovery.Component,
	arena *relgraph.Arena,
	businesses []models.Business,
	dedupeResult *dedupe.Result,
	propertyCounts map[models.EntityKind]map[string]int,
	ruleset *rules.Ruleset,
) ([]models.Network, []models.NetworkMembership) {
	businessByID := make(map[string]models.Business, len(businesses))
	for _, b := range businesses {
		businessByID[b.ID] = b
	}
	principalByID := make(map[string]models.CanonicalPrincipal, len(dedupeResult.Principals))
	for _, cp := range dedupeResult.Principals {
		principalByID[cp.PrincipalID] = cp
	}
	businessesByPrincipal := map[string][]string{}
	for _, link := range dedupeResult.Links {
		businessesByPrincipal[link.PrincipalID] = append(businessesByPrincipal[link.PrincipalID], link.BusinessID)
	}

	namer := discovery.NewNamer(ruleset)
	createdAt := p.now().UTC()

	var networks []models.Network
	var memberships []models.NetworkMembership

	for _, component := range components {
		networkID := uuid.New().String()
		inComponent := map[relgraph.NodeRef]bool{}
		for _, idx := range component.Members {
			inComponent[arena.Node(idx)] = true
		}

		var members []discovery.Member
		businessCount, principalCount := 0, 0

		for _, idx := range component.Members {
			ref := arena.Node(idx)
			member := discovery.Member{Kind: ref.Kind, ID: ref.ID}

			switch ref.Kind {
			case models.EntityKindBusiness:
				businessCount++
				b := businessByID[ref.ID]
				member.DisplayName = b.Name
				member.NormalizedName = b.NameNormalized
				if member.NormalizedName == "" {
					member.NormalizedName = normalizers.NormalizeBusinessName(b.Name)
				}
				member.Weight = propertyCounts[models.EntityKindBusiness][ref.ID]
			case models.EntityKindPrincipal:
				principalCount++
				cp := principalByID[ref.ID]
				member.DisplayName = cp.DisplayName
				member.NormalizedName = cp.NormalizedName
				member.Weight = propertyCounts[models.EntityKindPrincipal][ref.ID]
				for _, businessID := range businessesByPrincipal[ref.ID] {
					if inComponent[relgraph.NodeRef{Kind: models.EntityKindBusiness, ID: businessID}] {
						member.Weight += propertyCounts[models.EntityKindBusiness][businessID]
					}
				}
			}

			members = append(members, member)
			memberships = append(memberships, models.NetworkMembership{
				NetworkID:      networkID,
				EntityKind:     ref.Kind,
				EntityID:       ref.ID,
				DisplayName:    member.DisplayName,
				NormalizedName: member.NormalizedName,
			})
		}

		networks = append(networks, models.Network{
			NetworkID:      networkID,
			PrimaryName:    namer.Name(members),
			BusinessCount:  businessCount,
			PrincipalCount: principalCount,
			CreatedAt:      createdAt,
		})
	}

	return networks, memberships
}

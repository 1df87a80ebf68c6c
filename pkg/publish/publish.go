// Package publish writes discovered networks through shadow tables and an
// atomic cutover, so readers of the live snapshot never see a partial
// rebuild.
package publish

import (
	"context"
	"math"

	"github.com/Gobusters/ectologger"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// NetworkStore is the persistence surface the publisher drives.
type NetworkStore interface {
	ResetShadow(ctx context.Context) error
	InsertShadow(ctx context.Context, networks []models.Network, memberships []models.NetworkMembership) error
	CountLive(ctx context.Context) (networks int, memberships int, err error)
	Cutover(ctx context.Context) error
}

// Publisher replaces the live network snapshot.
type Publisher struct {
	store          NetworkStore
	deltaWarnRatio float64
	logger         ectologger.Logger
}

// NewPublisher creates a publisher. deltaWarnRatio is the membership-count
// change fraction beyond which a publish logs a warning; the publish still
// proceeds, since a large delta is suspicious but not provably wrong.
func NewPublisher(store NetworkStore, deltaWarnRatio float64, logger ectologger.Logger) *Publisher {
	return &Publisher{
		store:          store,
		deltaWarnRatio: deltaWarnRatio,
		logger:         logger,
	}
}

// Publish builds the shadow snapshot, validates it against the live one,
// and cuts over. Returns the number of validation warnings raised.
func (p *Publisher) Publish(ctx context.Context, networks []models.Network, memberships []models.NetworkMembership) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "publish.Publisher.Publish")
	defer span.End()

	if err := p.store.ResetShadow(ctx); err != nil {
		return 0, err
	}
	if err := p.store.InsertShadow(ctx, networks, memberships); err != nil {
		return 0, err
	}

	warnings := p.validate(ctx, len(networks), len(memberships))

	if err := p.store.Cutover(ctx); err != nil {
		return warnings, err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"networks":    len(networks),
		"memberships": len(memberships),
		"warnings":    warnings,
	}).Info("Published network snapshot")

	return warnings, nil
}

// validate compares the shadow snapshot against the live one. A first
// publish (empty live snapshot) is exempt.
func (p *Publisher) validate(ctx context.Context, newNetworks, newMemberships int) int {
	liveNetworks, liveMemberships, err := p.store.CountLive(ctx)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("Skipping publish validation, live counts unavailable")
		return 1
	}
	if liveNetworks == 0 && liveMemberships == 0 {
		return 0
	}

	warnings := 0
	if ratio := changeRatio(liveMemberships, newMemberships); ratio > p.deltaWarnRatio {
		warnings++
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"live_memberships": liveMemberships,
			"new_memberships":  newMemberships,
			"change_ratio":     ratio,
		}).Warn("Membership count changed sharply since last publish")
	}
	if ratio := changeRatio(liveNetworks, newNetworks); ratio > p.deltaWarnRatio {
		warnings++
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"live_networks": liveNetworks,
			"new_networks":  newNetworks,
			"change_ratio":  ratio,
		}).Warn("Network count changed sharply since last publish")
	}

	return warnings
}

func changeRatio(live, next int) float64 {
	if live == 0 {
		return 0
	}
	return math.Abs(float64(next-live)) / float64(live)
}

package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
)

type fakeStore struct {
	calls            []string
	liveNetworks     int
	liveMemberships  int
	shadowNetworks   []models.Network
	shadowMembership []models.NetworkMembership
	cutoverErr       error
}

func (f *fakeStore) ResetShadow(_ context.Context) error {
	f.calls = append(f.calls, "reset")
	f.shadowNetworks = nil
	f.shadowMembership = nil
	return nil
}

func (f *fakeStore) InsertShadow(_ context.Context, networks []models.Network, memberships []models.NetworkMembership) error {
	f.calls = append(f.calls, "insert")
	f.shadowNetworks = networks
	f.shadowMembership = memberships
	return nil
}

func (f *fakeStore) CountLive(_ context.Context) (int, int, error) {
	f.calls = append(f.calls, "count")
	return f.liveNetworks, f.liveMemberships, nil
}

func (f *fakeStore) Cutover(_ context.Context) error {
	f.calls = append(f.calls, "cutover")
	return f.cutoverErr
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func sampleSnapshot() ([]models.Network, []models.NetworkMembership) {
	networks := []models.Network{
		{NetworkID: "n1", PrimaryName: "Jane Zaleski", BusinessCount: 2, PrincipalCount: 1, CreatedAt: time.Now().UTC()},
	}
	memberships := []models.NetworkMembership{
		{NetworkID: "n1", EntityKind: models.EntityKindBusiness, EntityID: "b1", DisplayName: "One LLC", NormalizedName: "ONE LLC"},
		{NetworkID: "n1", EntityKind: models.EntityKindBusiness, EntityID: "b2", DisplayName: "Two LLC", NormalizedName: "TWO LLC"},
		{NetworkID: "n1", EntityKind: models.EntityKindPrincipal, EntityID: "p1", DisplayName: "Jane Zaleski", NormalizedName: "JANE ZALESKI"},
	}
	return networks, memberships
}

func TestPublishOrdersShadowBeforeCutover(t *testing.T) {
	store := &fakeStore{liveNetworks: 1, liveMemberships: 3}
	p := NewPublisher(store, 0.5, testLogger())
	networks, memberships := sampleSnapshot()

	warnings, err := p.Publish(context.Background(), networks, memberships)

	require.NoError(t, err)
	assert.Zero(t, warnings)
	assert.Equal(t, []string{"reset", "insert", "count", "cutover"}, store.calls)
	assert.Len(t, store.shadowMembership, 3)
}

func TestPublishWarnsOnSharpDelta(t *testing.T) {
	store := &fakeStore{liveNetworks: 10, liveMemberships: 100}
	p := NewPublisher(store, 0.5, testLogger())
	networks, memberships := sampleSnapshot()

	warnings, err := p.Publish(context.Background(), networks, memberships)

	// Publish proceeds despite the warnings.
	require.NoError(t, err)
	assert.Equal(t, 2, warnings)
	assert.Equal(t, "cutover", store.calls[len(store.calls)-1])
}

func TestPublishFirstRunExemptFromValidation(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(store, 0.5, testLogger())
	networks, memberships := sampleSnapshot()

	warnings, err := p.Publish(context.Background(), networks, memberships)

	require.NoError(t, err)
	assert.Zero(t, warnings)
}

func TestPublishCutoverErrorPropagates(t *testing.T) {
	store := &fakeStore{cutoverErr: errors.New("ddl lock timeout")}
	p := NewPublisher(store, 0.5, testLogger())
	networks, memberships := sampleSnapshot()

	_, err := p.Publish(context.Background(), networks, memberships)

	require.Error(t, err)
}

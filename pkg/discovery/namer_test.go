package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/rules"
)

func namerMembers() []Member {
	return []Member{
		{Kind: models.EntityKindBusiness, ID: "b1", DisplayName: "Lakeside Holdings LLC", NormalizedName: "LAKESIDE HOLDINGS LLC", Weight: 12},
		{Kind: models.EntityKindBusiness, ID: "b2", DisplayName: "Elm Street Rentals LLC", NormalizedName: "ELM STREET RENTALS LLC", Weight: 4},
		{Kind: models.EntityKindPrincipal, ID: "p1", DisplayName: "Jane Zaleski", NormalizedName: "JANE ZALESKI", Weight: 12},
		{Kind: models.EntityKindPrincipal, ID: "p2", DisplayName: "Omar Haddad", NormalizedName: "OMAR HADDAD", Weight: 4},
	}
}

func TestNameTwoHumans(t *testing.T) {
	n := NewNamer(rules.New(nil, nil, nil))

	assert.Equal(t, "Jane Zaleski & Omar Haddad", n.Name(namerMembers()))
}

func TestNameSingleHuman(t *testing.T) {
	n := NewNamer(rules.New(nil, nil, nil))

	members := []Member{
		{Kind: models.EntityKindPrincipal, ID: "p1", DisplayName: "Jane Zaleski", NormalizedName: "JANE ZALESKI", Weight: 1},
		{Kind: models.EntityKindBusiness, ID: "b1", DisplayName: "Lakeside Holdings LLC", NormalizedName: "LAKESIDE HOLDINGS LLC", Weight: 9},
	}

	assert.Equal(t, "Jane Zaleski", n.Name(members))
}

func TestNameCorporatePrincipalWhenNoHumans(t *testing.T) {
	n := NewNamer(rules.New(nil, nil, nil))

	members := []Member{
		{Kind: models.EntityKindPrincipal, ID: "p1", DisplayName: "Evergreen Trust", NormalizedName: "EVERGREEN TRUST", Weight: 3},
		{Kind: models.EntityKindBusiness, ID: "b1", DisplayName: "Lakeside Holdings LLC", NormalizedName: "LAKESIDE HOLDINGS LLC", Weight: 9},
	}

	assert.Equal(t, "Evergreen Trust", n.Name(members))
}

func TestNameFallsBackToBusiness(t *testing.T) {
	n := NewNamer(rules.New(nil, nil, nil))

	members := []Member{
		{Kind: models.EntityKindBusiness, ID: "b1", DisplayName: "Lakeside Holdings LLC", NormalizedName: "LAKESIDE HOLDINGS LLC", Weight: 2},
		{Kind: models.EntityKindBusiness, ID: "b2", DisplayName: "Elm Street Rentals LLC", NormalizedName: "ELM STREET RENTALS LLC", Weight: 7},
	}

	assert.Equal(t, "Elm Street Rentals LLC", n.Name(members))
}

func TestNameIgnoreListedPrincipalNeverEligible(t *testing.T) {
	n := NewNamer(rules.New(nil, []models.IgnoredPrincipal{
		{NormalizedName: "NORTHWEST REGISTERED AGENT"},
	}, nil))

	members := []Member{
		{Kind: models.EntityKindPrincipal, ID: "p1", DisplayName: "Northwest Registered Agent", NormalizedName: "NORTHWEST REGISTERED AGENT", Weight: 100},
		{Kind: models.EntityKindPrincipal, ID: "p2", DisplayName: "Jane Zaleski", NormalizedName: "JANE ZALESKI", Weight: 1},
	}

	assert.Equal(t, "Jane Zaleski", n.Name(members))
}

func TestNameWeightOrdersHumans(t *testing.T) {
	n := NewNamer(rules.New(nil, nil, nil))

	members := []Member{
		{Kind: models.EntityKindPrincipal, ID: "p1", DisplayName: "Omar Haddad", NormalizedName: "OMAR HADDAD", Weight: 4},
		{Kind: models.EntityKindPrincipal, ID: "p2", DisplayName: "Jane Zaleski", NormalizedName: "JANE ZALESKI", Weight: 12},
		{Kind: models.EntityKindPrincipal, ID: "p3", DisplayName: "Ada Okafor", NormalizedName: "ADA OKAFOR", Weight: 1},
	}

	assert.Equal(t, "Jane Zaleski & Omar Haddad", n.Name(members))
}

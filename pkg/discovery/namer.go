package discovery

import (
	"sort"
	"strings"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/rules"
)

// corporateKeywords mark a name as a corporate vehicle rather than a
// person. Matched as whole tokens of the normalized name.
var corporateKeywords = map[string]bool{
	"LLC": true, "INC": true, "CORP": true, "CO": true, "LTD": true,
	"LP": true, "LLP": true, "TRUST": true, "REALTY": true,
	"HOLDINGS": true, "PROPERTIES": true, "MANAGEMENT": true,
	"GROUP": true, "ASSOCIATES": true, "ENTERPRISES": true,
	"ESTATE": true, "PARTNERS": true, "VENTURES": true,
	"DEVELOPMENT": true, "INVESTMENTS": true,
}

// Member is one network entity as the namer sees it. Weight is the total
// property count attributable to the entity within the network.
type Member struct {
	Kind           models.EntityKind
	ID             string
	DisplayName    string
	NormalizedName string
	Weight         int
}

// Namer picks the primary display name for a network.
type Namer struct {
	ruleset *rules.Ruleset
}

// NewNamer creates a namer.
func NewNamer(ruleset *rules.Ruleset) *Namer {
	return &Namer{ruleset: ruleset}
}

// Name selects the network's primary name. Preference order: the top two
// human principals joined with "&", a single human principal, the top
// corporate principal, then the heaviest business. Ignore-listed
// principals are never eligible.
func (n *Namer) Name(members []Member) string {
	var humans, corporates, businesses []Member

	for _, m := range members {
		switch {
		case m.Kind == models.EntityKindBusiness:
			businesses = append(businesses, m)
		case n.ruleset.IsIgnoredPrincipal(m.NormalizedName):
			// never name a network after a registrar
		case isCorporateName(m.NormalizedName):
			corporates = append(corporates, m)
		default:
			humans = append(humans, m)
		}
	}

	byWeight(humans)
	byWeight(corporates)
	byWeight(businesses)

	switch {
	case len(humans) >= 2:
		return humans[0].DisplayName + " & " + humans[1].DisplayName
	case len(humans) == 1:
		return humans[0].DisplayName
	case len(corporates) > 0:
		return corporates[0].DisplayName
	case len(businesses) > 0:
		return businesses[0].DisplayName
	default:
		return ""
	}
}

// byWeight orders heaviest first, display name as tiebreak.
func byWeight(members []Member) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].Weight != members[j].Weight {
			return members[i].Weight > members[j].Weight
		}
		return members[i].DisplayName < members[j].DisplayName
	})
}

func isCorporateName(normalizedName string) bool {
	for _, tok := range strings.Fields(normalizedName) {
		if corporateKeywords[tok] {
			return true
		}
	}
	return false
}

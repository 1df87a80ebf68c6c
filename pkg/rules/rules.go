// Package rules holds the operator-maintained resolution rules: email
// domain classification, ignored principals, agent-address deny list, the
// common-surname guard and the placeholder-name stoplist. The tables are
// loaded read-only at run start; a missing table degrades to "no signal
// from this source", never a failure.
package rules

import (
	"strings"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/normalizers"
)

// defaultStopNames are placeholder owner values that carry no identity.
var defaultStopNames = []string{
	"UNKNOWN", "CURRENT OWNER", "OWNER", "TRUSTEE", "TRUSTEES", "ET AL",
	"SAME", "SAME AS ABOVE", "N A", "NA", "NONE", "TBD", "VACANT",
}

// defaultCommonSurnames guards frequent surnames against over-merging:
// two-token names containing one of these only merge on a shared email.
var defaultCommonSurnames = []string{
	"SMITH", "JOHNSON", "WILLIAMS", "BROWN", "JONES", "GARCIA", "MILLER",
	"DAVIS", "RODRIGUEZ", "MARTINEZ", "HERNANDEZ", "LOPEZ", "GONZALEZ",
	"WILSON", "ANDERSON", "THOMAS", "TAYLOR", "MOORE", "JACKSON", "MARTIN",
	"LEE", "PEREZ", "THOMPSON", "WHITE", "HARRIS", "SANCHEZ", "CLARK",
	"RAMIREZ", "LEWIS", "ROBINSON", "WALKER", "YOUNG", "ALLEN", "KING",
	"WRIGHT", "SCOTT", "TORRES", "NGUYEN", "HILL", "FLORES", "GREEN",
	"ADAMS", "NELSON", "BAKER", "HALL", "RIVERA", "CAMPBELL", "MITCHELL",
	"CARTER", "ROBERTS",
}

// Ruleset is the immutable rule state for one pipeline run.
type Ruleset struct {
	emailRules     map[string]models.EmailClass
	ignoredNames   map[string]bool
	agentAddresses map[string]bool
	commonSurnames map[string]bool
	stopNames      map[string]bool
}

// New builds a Ruleset from the loaded configuration tables. Nil or empty
// slices are valid and simply disable that signal.
func New(emailRules []models.EmailRule, ignored []models.IgnoredPrincipal, agents []models.AgentAddress) *Ruleset {
	rs := &Ruleset{
		emailRules:     make(map[string]models.EmailClass, len(emailRules)),
		ignoredNames:   make(map[string]bool, len(ignored)),
		agentAddresses: make(map[string]bool, len(agents)),
		commonSurnames: make(map[string]bool, len(defaultCommonSurnames)),
		stopNames:      make(map[string]bool, len(defaultStopNames)),
	}

	for _, r := range emailRules {
		rs.emailRules[strings.ToLower(strings.TrimSpace(r.Domain))] = r.Class
	}
	for _, p := range ignored {
		rs.ignoredNames[normalizers.PersonNameKey(p.NormalizedName)] = true
	}
	for _, a := range agents {
		rs.agentAddresses[normalizers.NormalizeAddress(a.NormalizedAddress)] = true
	}
	for _, s := range defaultCommonSurnames {
		rs.commonSurnames[s] = true
	}
	for _, s := range defaultStopNames {
		rs.stopNames[s] = true
	}

	return rs
}

// ClassifyEmail maps an email address to its shared-contact match key.
// Registrar domains yield no key. Custom domains yield the domain itself:
// any two entities on that private domain are related. Everything else,
// including unknown domains, yields the full lowercased address, because
// public webmail domains are shared by unrelated parties.
func (rs *Ruleset) ClassifyEmail(address string) (string, bool) {
	domain := normalizers.EmailDomain(address)
	if domain == "" {
		return "", false
	}

	switch rs.emailRules[domain] {
	case models.EmailClassRegistrar:
		return "", false
	case models.EmailClassCustom:
		return domain, true
	default:
		return normalizers.NormalizeEmail(address), true
	}
}

// IsIgnoredPrincipal reports whether a normalized principal name is on the
// registrar/agent ignore list.
func (rs *Ruleset) IsIgnoredPrincipal(normalizedName string) bool {
	return rs.ignoredNames[normalizers.PersonNameKey(normalizedName)]
}

// IsAgentAddress reports whether a normalized address is a known
// registered-agent hub.
func (rs *Ruleset) IsAgentAddress(normalizedAddress string) bool {
	return rs.agentAddresses[normalizedAddress]
}

// IsStopName reports whether a normalized name is a placeholder value.
func (rs *Ruleset) IsStopName(normalizedName string) bool {
	return rs.stopNames[normalizedName]
}

// IsGuardedName reports whether a normalized person name falls under the
// common-surname guard: exactly two tokens, one of them a common surname.
// Guarded names only merge across businesses on a shared email.
func (rs *Ruleset) IsGuardedName(normalizedName string) bool {
	tokens := strings.Fields(normalizedName)
	if len(tokens) != 2 {
		return false
	}
	return rs.commonSurnames[tokens[0]] || rs.commonSurnames[tokens[1]]
}

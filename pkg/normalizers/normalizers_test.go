package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBusinessName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercase folded", input: "acme holdings llc", expected: "ACME HOLDINGS LLC"},
		{name: "ampersand folded to AND", input: "Smith & Sons", expected: "SMITH AND SONS"},
		{name: "punctuation stripped", input: "A.B.C., Inc.", expected: "A B C INC"},
		{name: "hyphen retained", input: "Mid-Town Realty", expected: "MID-TOWN REALTY"},
		{name: "whitespace collapsed", input: "  Acme   Corp  ", expected: "ACME CORP"},
		{name: "apostrophe stripped", input: "O'Brien Props", expected: "O BRIEN PROPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBusinessName(tt.input))
		})
	}
}

func TestNormalizePersonName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "suffix jr stripped", input: "John Smith Jr.", expected: "JOHN SMITH"},
		{name: "suffix iii stripped", input: "Robert Moses III", expected: "ROBERT MOSES"},
		{name: "stacked suffixes stripped", input: "Ann Lee MD PhD", expected: "ANN LEE"},
		{name: "suffix-only name keeps last token", input: "JR", expected: "JR"},
		{name: "middle initial kept", input: "John A. Smith", expected: "JOHN A SMITH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePersonName(tt.input))
		})
	}
}

func TestPersonNameKey_OrderInvariant(t *testing.T) {
	assert.Equal(t, PersonNameKey("Smith John"), PersonNameKey("John Smith"))
	assert.Equal(t, PersonNameKey("Lopez Maria Elena"), PersonNameKey("Maria Elena Lopez"))
	assert.NotEqual(t, PersonNameKey("John Smith"), PersonNameKey("Jane Smith"))
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "street suffix abbreviated", input: "123 Main Street", expected: "123 MAIN ST"},
		{name: "directional abbreviated", input: "45 West Elm Avenue", expected: "45 W ELM AVE"},
		{name: "embedded token not mangled", input: "12 Weston Road", expected: "12 WESTON RD"},
		{name: "unit folded", input: "1 Agent Plaza, Suite 200", expected: "1 AGENT PLAZA STE 200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeAddress(tt.input))
		})
	}
}

// Applying a normalizer twice must equal applying it once.
func TestNormalizersIdempotent(t *testing.T) {
	inputs := []string{
		"Smith & Sons, L.L.C.",
		"John A. Smith Jr.",
		"  123 North   Main Street, Apt 4-B ",
		"",
		"& & &",
		"MARIA-ELENA LOPEZ III",
	}

	for _, s := range inputs {
		assert.Equal(t, NormalizeBusinessName(s), NormalizeBusinessName(NormalizeBusinessName(s)))
		assert.Equal(t, NormalizePersonName(s), NormalizePersonName(NormalizePersonName(s)))
		assert.Equal(t, PersonNameKey(s), PersonNameKey(PersonNameKey(s)))
		assert.Equal(t, NormalizeAddress(s), NormalizeAddress(NormalizeAddress(s)))
		assert.Equal(t, NormalizeEmail(s), NormalizeEmail(NormalizeEmail(s)))
	}
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "sharedcorp.com", EmailDomain("X@SharedCorp.com"))
	assert.Equal(t, "", EmailDomain("not-an-email"))
	assert.Equal(t, "", EmailDomain("@nodomain"))
	assert.Equal(t, "", EmailDomain("nouser@"))
}

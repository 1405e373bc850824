package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogDuplicateFree(t *testing.T) {
	seen := make(map[Code]bool)
	for _, c := range Catalog() {
		assert.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
	}
	assert.GreaterOrEqual(t, len(seen), 36)
}

func TestCatalogCodesBelongToAComponent(t *testing.T) {
	for _, c := range Catalog() {
		assert.NotEmpty(t, c.Component(), "code %s has no component prefix", c)
	}
}

func TestComponent(t *testing.T) {
	assert.Equal(t, "MCL", MCLEventWindow.Component())
	assert.Equal(t, "BRAIN", BrainContinuation.Component())
	assert.Equal(t, "PM", PMApproved.Component())
	assert.Equal(t, "EHM", EHMDeadEdge.Component())
	assert.Equal(t, "", Code("UNKNOWN_THING").Component())
	assert.Equal(t, "", Code("PMX_NOT_A_PREFIX").Component())
	assert.Equal(t, "", Code("").Component())
}

func TestString(t *testing.T) {
	assert.Equal(t, "PM_RISK_OFF", PMRiskOff.String())
}

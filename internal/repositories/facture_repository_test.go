package repositories

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferencePattern(t *testing.T) {
	assert.Nil(t, referencePattern(""))

	p := referencePattern("FAC-2025-1000")
	require.NotNil(t, p)
	re := regexp.MustCompile(`(?i)` + *p)

	assert.True(t, re.MatchString("FAC-2025-1000"))
	assert.True(t, re.MatchString("virement fac-2025-1000"))
	assert.False(t, re.MatchString("FAC-2025-10000"))
	assert.False(t, re.MatchString("FAC-2025-100"))
}

package zarrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalConfig(t *testing.T) {
	orig := GlobalConfig()
	defer SetGlobalConfig(orig)

	assert.GreaterOrEqual(t, orig.CodecConcurrentTarget, 1)
	assert.GreaterOrEqual(t, orig.ChunkConcurrentMinimum, 1)
	assert.True(t, orig.ValidateChecksums)

	updated := orig
	updated.CodecConcurrentTarget = 2
	updated.ValidateChecksums = false
	SetGlobalConfig(updated)
	assert.Equal(t, updated, GlobalConfig())
}

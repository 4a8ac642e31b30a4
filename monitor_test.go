package pmr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pavanmanishd/pmr"
)

func TestMonitorTracksBlockDeltas(t *testing.T) {
	r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))
	m := pmr.NewMonitor(r)

	assert.True(t, m.IsInUseSame())
	assert.True(t, m.IsMaxSame())
	assert.True(t, m.IsTotalSame())

	ptr, _ := r.Allocate(64, 0)
	assert.True(t, m.IsInUseUp())
	assert.True(t, m.IsMaxUp())
	assert.True(t, m.IsTotalUp())
	assert.EqualValues(t, 1, m.DeltaBlocksInUse())
	assert.EqualValues(t, 1, m.DeltaMaxBlocks())
	assert.EqualValues(t, 1, m.DeltaTotalBlocks())

	r.Deallocate(ptr, 64, 0)
	assert.True(t, m.IsInUseSame(), "IsInUseSame should be true once the block returns to its start level")
	assert.True(t, m.IsMaxUp(), "IsMaxUp should remain true: max-blocks is monotone")

	m.Reset()
	assert.True(t, m.IsInUseSame())
	assert.True(t, m.IsMaxSame())
	assert.True(t, m.IsTotalSame())
}

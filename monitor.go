package pmr

// Monitor observes changes in the block-count statistics collected by
// a Resource, without caring about byte counts. Grounded on
// original_source's test_resource_monitor.
type Monitor struct {
	initialInUse int64
	initialMax   int64
	initialTotal int64
	monitored    *Resource
}

// NewMonitor returns a Monitor snapshotting r's current block counters.
// r must not be nil.
func NewMonitor(r *Resource) *Monitor {
	m := &Monitor{monitored: r}
	m.Reset()
	return m
}

// Reset re-snapshots the monitored resource's current counters.
func (m *Monitor) Reset() {
	m.initialInUse = m.monitored.BlocksInUse()
	m.initialMax = m.monitored.MaxBlocks()
	m.initialTotal = m.monitored.TotalBlocks()
}

// IsInUseDown reports whether blocks-in-use has decreased since the
// last snapshot.
func (m *Monitor) IsInUseDown() bool {
	return m.monitored.BlocksInUse() < m.initialInUse
}

// IsInUseSame reports whether blocks-in-use is unchanged.
func (m *Monitor) IsInUseSame() bool {
	return m.monitored.BlocksInUse() == m.initialInUse
}

// IsInUseUp reports whether blocks-in-use has increased.
func (m *Monitor) IsInUseUp() bool {
	return m.monitored.BlocksInUse() > m.initialInUse
}

// IsMaxSame reports whether max-blocks is unchanged.
func (m *Monitor) IsMaxSame() bool {
	return m.monitored.MaxBlocks() == m.initialMax
}

// IsMaxUp reports whether max-blocks has changed since the snapshot
// (max-blocks is monotone, so "up" is the only possible change).
func (m *Monitor) IsMaxUp() bool {
	return m.monitored.MaxBlocks() != m.initialMax
}

// IsTotalSame reports whether total-blocks is unchanged.
func (m *Monitor) IsTotalSame() bool {
	return m.monitored.TotalBlocks() == m.initialTotal
}

// IsTotalUp reports whether total-blocks has changed since the
// snapshot.
func (m *Monitor) IsTotalUp() bool {
	return m.monitored.TotalBlocks() != m.initialTotal
}

// DeltaBlocksInUse returns the change in blocks-in-use since the
// snapshot (may be negative).
func (m *Monitor) DeltaBlocksInUse() int64 {
	return m.monitored.BlocksInUse() - m.initialInUse
}

// DeltaMaxBlocks returns the change in max-blocks since the snapshot.
func (m *Monitor) DeltaMaxBlocks() int64 {
	return m.monitored.MaxBlocks() - m.initialMax
}

// DeltaTotalBlocks returns the change in total-blocks since the
// snapshot.
func (m *Monitor) DeltaTotalBlocks() int64 {
	return m.monitored.TotalBlocks() - m.initialTotal
}

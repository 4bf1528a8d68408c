package nav

// Marker holds one remembered media time.
type Marker struct {
	time float64
	set  bool
}

// Set overwrites the stored time.
func (m *Marker) Set(t float64) {
	m.time = t
	m.set = true
}

// Recall returns the stored time, if any. The marker is kept.
func (m *Marker) Recall() (float64, bool) {
	return m.time, m.set
}

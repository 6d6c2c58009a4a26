package scraper

type tickMetrics struct {
	totalSelected int
	updated       int
	unchanged     int
	notified      int
	errored       int
}

func (m *tickMetrics) Add(other *tickMetrics) {
	m.totalSelected += other.totalSelected
	m.updated += other.updated
	m.unchanged += other.unchanged
	m.notified += other.notified
	m.errored += other.errored
}

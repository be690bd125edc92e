package pixel

// ColorStats maps a color's canonical "r,g,b" key to the number of
// pixels that mapped to it during the most recent palette conversion.
// It is rebuilt from scratch on every conversion pass, never merged.
type ColorStats map[string]int

// Record increments the count for key, initializing it to 1 when
// absent, and returns the mapping. An empty key leaves stats untouched,
// so collection can be disabled by simply not producing keys.
func Record(key string, stats ColorStats) ColorStats {
	if key == "" || stats == nil {
		return stats
	}
	stats[key]++
	return stats
}

// Total sums all recorded counts. Equals width*height of the processed
// image after a full conversion pass.
func (s ColorStats) Total() int {
	var n int
	for _, count := range s {
		n += count
	}
	return n
}

package as726x

// movingAverage stores an estimated moving average of the last n values.
type movingAverage struct {
	mean float64
	n    int
	seen bool
}

func (m *movingAverage) add(v float64) {
	// if first value, pre-fill the mean.
	if !m.seen || m.n <= 1 {
		m.mean = v
		m.seen = true
		return
	}
	m.mean += (v - m.mean) / float64(m.n)
}

func (m *movingAverage) reset() {
	m.mean = 0
	m.seen = false
}

package activation

// Key identifies one (exercise, channel) series.
type Key struct {
	Exercise string
	Channel  int
}

// Window is the outcome of a stable window search.
type Window struct {
	Samples int
	Seconds float64
}

// Repetition is one normalized recording of a channel.
type Repetition struct {
	// Index is the repetition number parsed from the file name.
	Index  int
	Source string
	// Mean is the average normalized activation.
	Mean       float64
	Activation []float64
	// StableWindow is nil when the search is disabled or found no window.
	StableWindow *Window
}

// Series groups repetitions by Key with a defined iteration order.
type Series struct {
	order []Key
	reps  map[Key][]Repetition
}

func NewSeries() *Series {
	return &Series{reps: make(map[Key][]Repetition)}
}

// Add appends rep to key's repetitions.
func (s *Series) Add(key Key, rep Repetition) {
	if _, ok := s.reps[key]; !ok {
		s.order = append(s.order, key)
	}
	s.reps[key] = append(s.reps[key], rep)
}

// Keys returns every key in first-insertion order.
func (s *Series) Keys() []Key {
	return append([]Key(nil), s.order...)
}

// Repetitions returns key's repetitions in insertion order.
func (s *Series) Repetitions(key Key) []Repetition {
	return append([]Repetition(nil), s.reps[key]...)
}

// Exercises returns the distinct exercise names in first-insertion order.
func (s *Series) Exercises() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, k := range s.order {
		if _, ok := seen[k.Exercise]; ok {
			continue
		}
		seen[k.Exercise] = struct{}{}
		out = append(out, k.Exercise)
	}
	return out
}

// Len is the number of keys.
func (s *Series) Len() int { return len(s.order) }

package query

// Selection holds the current cross-filter shared by every grid bound to
// it. Other widgets update it; grids subscribe and refetch. Listeners run
// synchronously inside Update, so Update must be called from the loop that
// owns the subscribed grids.
type Selection struct {
	filter    Filter
	version   uint64
	next      int
	listeners map[int]func(Filter)
}

// NewSelection creates a selection matching every row
func NewSelection() *Selection {
	return &Selection{listeners: make(map[int]func(Filter))}
}

// Current returns the active filter
func (s *Selection) Current() Filter {
	if s == nil {
		return Filter{}
	}
	return s.filter
}

// Version increments on every Update
func (s *Selection) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Update replaces the filter and notifies subscribers
func (s *Selection) Update(f Filter) {
	s.filter = f
	s.version++
	for _, fn := range s.listeners {
		fn(f)
	}
}

// Subscribe registers fn for future updates and returns a function that
// removes it
func (s *Selection) Subscribe(fn func(Filter)) func() {
	if s == nil {
		return func() {}
	}
	id := s.next
	s.next++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

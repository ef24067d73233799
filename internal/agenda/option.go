package agenda

// Option adjusts how Intersect and Union label their result.
type Option func(*label)

type label struct {
	desc string
	set  bool
}

// WithDesc overrides the description of a combined appointment. An empty
// string is a valid override and yields an empty description.
func WithDesc(desc string) Option {
	return func(l *label) {
		l.desc = desc
		l.set = true
	}
}

func resolve(opts []Option, fallback string) string {
	var l label
	for _, opt := range opts {
		opt(&l)
	}
	if !l.set {
		return fallback
	}
	return l.desc
}

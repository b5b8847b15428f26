package service

import "time"

// DefaultRecentLimit is how many events the recent list and search return.
const DefaultRecentLimit = 200

type options struct {
	now         func() time.Time
	recentLimit int
}

type Option func(*options)

// WithClock replaces time.Now as the source of event and user timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRecentLimit caps the recent list and search results.
func WithRecentLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.recentLimit = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, recentLimit: DefaultRecentLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

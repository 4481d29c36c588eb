package factory

import "time"

// Option applies a configuration option to the Factory.
type Option func(*Factory)

// WithAnnounceLeads overrides the candidate creation-to-announcement delays.
func WithAnnounceLeads(leads ...time.Duration) Option {
	return func(f *Factory) {
		if len(leads) > 0 {
			f.announceLeads = leads
		}
	}
}

// WithKickoffLeads overrides the candidate announcement-to-kickoff delays.
func WithKickoffLeads(leads ...time.Duration) Option {
	return func(f *Factory) {
		if len(leads) > 0 {
			f.kickoffLeads = leads
		}
	}
}

// WithIDGenerator replaces uuid generation.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(f *Factory) {
		if gen != nil {
			f.newID = gen
		}
	}
}

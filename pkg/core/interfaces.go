package core

// Logger interface for leveled logging
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
}

// FilterArgs describes a candidate hit offered to a filter
type FilterArgs struct {
	Ray  *Ray    // Ray being traced, read-only
	Hit  *Hit    // Candidate hit record, read-only
	T    float64 // Candidate distance
	Lane int     // Packet lane, -1 for single-ray queries
}

// FilterFunc accepts or rejects a candidate hit. A nil filter accepts everything.
type FilterFunc func(args *FilterArgs) bool

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...interface{})   {}
func (NopLogger) Infof(format string, args ...interface{})    {}
func (NopLogger) Warningf(format string, args ...interface{}) {}

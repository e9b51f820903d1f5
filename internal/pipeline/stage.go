package pipeline

import "context"

// Stage is one step an exchange entry goes through between capture and
// sink: level selection, throttling, rendering, scrubbing, counting,
// emission.
type Stage interface {
	Name() string

	// Process reads and updates e. Stages that only concern logged
	// exchanges check e.Logged first. A returned error aborts the chain.
	Process(ctx context.Context, e *Entry) error
}

package metrics

import "github.com/Purav30803/nds-client/internal/models"

type CycleObserver interface {
	CycleCompleted(result models.CycleResult)
}

type CommandObserver interface {
	CommandIssued(result models.CommandResult)
}

// Fanout forwards every notification to each member that implements the matching
// observer interface. Nil members are skipped.
type Fanout []interface{}

func (f Fanout) CycleCompleted(result models.CycleResult) {
	for _, o := range f {
		if obs, ok := o.(CycleObserver); ok && obs != nil {
			obs.CycleCompleted(result)
		}
	}
}

func (f Fanout) CommandIssued(result models.CommandResult) {
	for _, o := range f {
		if obs, ok := o.(CommandObserver); ok && obs != nil {
			obs.CommandIssued(result)
		}
	}
}

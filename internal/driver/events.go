package driver

import "time"

// Stage is the step a function is going through.
type Stage uint8

const (
	StageParse Stage = iota
	StageLower
	StageLoops
	StageRun
)

func (s Stage) String() string {
	switch s {
	case StageParse:
		return "parse"
	case StageLower:
		return "lower"
	case StageLoops:
		return "loops"
	case StageRun:
		return "run"
	}
	return "stage?"
}

// Status reports the progress of a function within a stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event describes a progress change. Func is empty for events about the
// whole module.
type Event struct {
	Func    string
	Stage   Stage
	Status  Status
	Elapsed time.Duration
	Err     error
}

// Observer receives events. It may be called from several goroutines.
type Observer func(Event)

func (o Observer) emit(ev Event) {
	if o != nil {
		o(ev)
	}
}

// ChannelObserver forwards events to ch. The receiver must keep draining
// ch until the driver call returns.
func ChannelObserver(ch chan<- Event) Observer {
	return func(ev Event) { ch <- ev }
}

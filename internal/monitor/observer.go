package monitor

import "encoding/json"

// Observer receives monitor events. Calls are made from the monitor's run
// loop, one at a time and in order. Exactly one of Completed, Failed or
// Cancelled is called per monitor, unless it is detached.
type Observer interface {
	StatusChanged(text string)
	Completed(payload json.RawMessage)
	Failed(message string)
	Cancelled(confirmed bool)
}

// ObserverFuncs adapts optional functions to the Observer interface.
// Nil fields are ignored.
type ObserverFuncs struct {
	OnStatusChanged func(text string)
	OnCompleted     func(payload json.RawMessage)
	OnFailed        func(message string)
	OnCancelled     func(confirmed bool)
}

var _ Observer = ObserverFuncs{}

func (f ObserverFuncs) StatusChanged(text string) {
	if f.OnStatusChanged != nil {
		f.OnStatusChanged(text)
	}
}

func (f ObserverFuncs) Completed(payload json.RawMessage) {
	if f.OnCompleted != nil {
		f.OnCompleted(payload)
	}
}

func (f ObserverFuncs) Failed(message string) {
	if f.OnFailed != nil {
		f.OnFailed(message)
	}
}

func (f ObserverFuncs) Cancelled(confirmed bool) {
	if f.OnCancelled != nil {
		f.OnCancelled(confirmed)
	}
}

package watcher

// Observer is a capability: it accepts one event at a time. Dispatch is
// synchronous from the notification loop, so an observer is expected to
// return promptly; anything it panics with is caught, logged, and
// swallowed by the notifier.
//
// Observer sets are identity-based (spec §3, "a set, no duplicates by
// identity"), so implementations must be comparable in the way Go map
// keys are: pointers, or structs of comparable fields. A bare function
// value is not comparable and must not implement Observer directly; use
// NewObserverFunc, which wraps one behind a pointer.
type Observer interface {
	OnEvent(event Event)
}

type funcObserver struct {
	fn func(Event)
}

func (f *funcObserver) OnEvent(event Event) {
	f.fn(event)
}

// NewObserverFunc adapts a plain function to the Observer interface. Each
// call returns a distinct Observer identity, matching AddObserver /
// RemoveObserver's identity semantics: the pointer returned must be kept
// by the caller and passed back to RemoveObserver.
func NewObserverFunc(fn func(Event)) Observer {
	return &funcObserver{fn: fn}
}

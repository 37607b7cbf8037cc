package querycache

import (
	"context"
	"time"
)

// Op names reported to observers.
const (
	OpQuery = "query"
	OpFlush = "flush"
)

// Event describes one completed cache operation.
type Event struct {
	Op       string
	Key      string
	Hit      bool
	Err      error
	Duration time.Duration
	Driver   Driver
}

// Observer receives an Event after each QueryCache operation completes.
// A cache hit is reported with Hit set; the stored entry is never touched.
type Observer interface {
	OnQuery(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// OnQuery implements Observer.
func (f ObserverFunc) OnQuery(ctx context.Context, ev Event) {
	if f == nil {
		return
	}
	f(ctx, ev)
}

type multiObserver []Observer

func (m multiObserver) OnQuery(ctx context.Context, ev Event) {
	for _, o := range m {
		o.OnQuery(ctx, ev)
	}
}

// Observers fans an event out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

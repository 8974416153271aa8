package notify

import (
	"context"
	"log"
	"sync"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/observe"
	"github.com/ayusman/mudra/internal/phrase"
)

// Dispatcher fans recognition events out to the discovered handlers. It
// plugs into the engine as a sink; handler invocations run on their own
// goroutines so a slow handler never stalls frame processing.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	metrics  *observe.Metrics
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher over the given manager and executor.
func NewDispatcher(manager *Manager, executor *Executor, metrics *observe.Metrics) *Dispatcher {
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		metrics:  metrics,
	}
}

// GestureRecognized implements the engine sink for stabilized gestures.
func (d *Dispatcher) GestureRecognized(ev gesture.Event) {
	d.dispatch(Request{
		Event:      EventGesture,
		Name:       ev.Gesture,
		Confidence: ev.Confidence,
		Timestamp:  ev.Timestamp,
	})
}

// PhraseMatched implements the engine sink for completed phrases.
func (d *Dispatcher) PhraseMatched(m phrase.Match) {
	d.dispatch(Request{
		Event:       EventPhrase,
		Name:        m.Name,
		Translation: m.Translation,
		Gestures:    m.Gestures,
		Timestamp:   m.Timestamp,
	})
}

// dispatch runs every subscribed handler for the request.
func (d *Dispatcher) dispatch(req Request) {
	for _, h := range d.manager.List() {
		if !h.Subscribes(req.Event) {
			continue
		}

		d.wg.Add(1)
		go func(h *Handler) {
			defer d.wg.Done()
			d.run(h, req)
		}(h)
	}
}

// run executes one handler and records the outcome.
func (d *Dispatcher) run(h *Handler, req Request) {
	status := "ok"

	resp, err := d.executor.Execute(h, &req)
	switch {
	case err != nil:
		status = "error"
		log.Printf("Handler %s failed for %s %q: %v", h.Manifest.Name, req.Event, req.Name, err)
	case !resp.Success:
		status = "error"
		log.Printf("Handler %s rejected %s %q: %s", h.Manifest.Name, req.Event, req.Name, resp.Error)
	}

	if d.metrics != nil {
		d.metrics.RecordHandler(context.Background(), h.Manifest.Name, status)
	}
}

// Wait blocks until all in-flight handler invocations finish. The shutdown
// path calls it so handlers are not killed mid-run.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

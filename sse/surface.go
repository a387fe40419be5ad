package sse

import (
	"sync"

	"github.com/kbukum/pipegraph/controller"
	"github.com/kbukum/pipegraph/logger"
)

// Surface renders a controller view to the browsers connected to it.
type Surface struct {
	hub  *Hub
	view string
	log  *logger.Logger

	mu      sync.Mutex
	last    []byte
	version uint64
	cycleID string
}

var _ controller.Surface = (*Surface)(nil)

// NewSurface creates a surface for view on hub.
func NewSurface(hub *Hub, view string) *Surface {
	return &Surface{
		hub:  hub,
		view: view,
		log:  logger.Get("sse").WithFields(logger.Fields("view", view)),
	}
}

func (s *Surface) pattern() string { return s.view + ":*" }

// Ready reports whether at least one browser is connected to the view.
func (s *Surface) Ready() bool {
	return s.hub.ViewClients(s.view) > 0
}

// Present broadcasts the snapshot and keeps it for replay to new clients.
// A snapshot older than the last presented version is dropped.
func (s *Surface) Present(snap controller.Snapshot) {
	eventType := EventTypeLayout
	if snap.Provisional {
		eventType = EventTypeProvisional
	}
	frame, err := Frame(eventType, snap)
	if err != nil {
		s.log.Error("encode snapshot failed", logger.ErrorFields("present", err))
		return
	}
	s.mu.Lock()
	if snap.Version < s.version {
		last := s.version
		s.mu.Unlock()
		s.log.Debug("dropping superseded snapshot", logger.Fields("version", snap.Version, "last", last))
		return
	}
	s.last, s.version, s.cycleID = frame, snap.Version, snap.CycleID
	// Broadcast under the lock so frames leave in version order.
	s.hub.BroadcastToPattern(s.pattern(), frame)
	s.mu.Unlock()
}

// RequestMeasure asks the browsers to measure the nodes of version. The
// event carries the cycle id of the presented frame so the answer can be
// matched to its cycle.
func (s *Surface) RequestMeasure(version uint64) {
	ev := MeasureEvent{Version: version}
	s.mu.Lock()
	if s.version == version {
		ev.CycleID = s.cycleID
	}
	s.mu.Unlock()
	if err := Publish(s.hub, s.pattern(), EventTypeMeasure, ev); err != nil {
		s.log.Error("measure request failed", logger.ErrorFields("measure", err))
	}
}

// ResetView asks the browsers to fit the graph into the viewport.
func (s *Surface) ResetView() {
	if err := Publish(s.hub, s.pattern(), EventTypeReset, struct{}{}); err != nil {
		s.log.Error("reset failed", logger.ErrorFields("reset", err))
	}
}

// Last returns the most recently presented frame, or nil.
func (s *Surface) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// View returns the view name.
func (s *Surface) View() string { return s.view }

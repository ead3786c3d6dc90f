// Package notify delivers workflow events to users. The services depend only
// on the Sink contract; the websocket hub is one implementation of it.
package notify

import (
	"context"
	"sync"
)

// Channel names mirror the queues the mobile and web clients subscribe to.
const (
	ChannelNearbyReports    = "nearby-reports"
	ChannelStatusUpdates    = "status-updates"
	ChannelReportRejections = "report-rejections"
	ChannelReportComments   = "report-comments"
)

// Sink pushes a payload to one user's private channel or broadcasts it on a
// public channel. Implementations must not block on slow consumers.
type Sink interface {
	SendToUser(ctx context.Context, userID, channel string, payload any) error
	Broadcast(ctx context.Context, channel string, payload any) error
}

// Delivery is one captured message; used by the in-memory sink.
type Delivery struct {
	UserID  string // empty for broadcasts
	Channel string
	Payload any
}

// MemorySink records deliveries for tests.
type MemorySink struct {
	mu         sync.Mutex
	deliveries []Delivery

	// FailFor makes SendToUser fail for the given user ids, so tests can
	// exercise per-recipient error isolation.
	FailFor map[string]error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{FailFor: make(map[string]error)}
}

func (s *MemorySink) SendToUser(_ context.Context, userID, channel string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.FailFor[userID]; ok {
		return err
	}
	s.deliveries = append(s.deliveries, Delivery{UserID: userID, Channel: channel, Payload: payload})
	return nil
}

func (s *MemorySink) Broadcast(_ context.Context, channel string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, Delivery{Channel: channel, Payload: payload})
	return nil
}

// Deliveries returns a copy of everything captured so far.
func (s *MemorySink) Deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Delivery{}, s.deliveries...)
}

// ForUser returns the deliveries addressed to one user.
func (s *MemorySink) ForUser(userID string) []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Delivery
	for _, d := range s.deliveries {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out
}

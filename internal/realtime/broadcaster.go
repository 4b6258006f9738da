package realtime

import (
	"encoding/json"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/logger"
)

// Event is the server-to-client envelope: {event, data}.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Broadcaster pushes events to every live connection registered under a set
// of participant keys. Best-effort: a dead or slow connection is skipped, no
// queueing, no retry. The durable record is the persisted message plus the
// communication log, not the push.
type Broadcaster struct {
	registry *Registry
}

func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Broadcast writes the event to each live connection for each key and
// returns how many connections accepted the payload. A key with zero live
// connections is a no-op.
func (b *Broadcaster) Broadcast(keys []Key, event string, payload interface{}) int {
	data, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		logger.Error().Err(err).Str("event", event).Msg("broadcast payload marshal failed")
		return 0
	}

	delivered := 0
	seen := make(map[Session]struct{})
	for _, key := range keys {
		for _, s := range b.registry.ConnectionsFor(key) {
			// one connection can sit under several of the target keys
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			if err := s.Send(data); err != nil {
				logger.Debug().Err(err).Str("key", key.String()).Str("event", event).Msg("broadcast send skipped")
				continue
			}
			delivered++
		}
	}
	return delivered
}

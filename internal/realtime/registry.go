package realtime

import (
	"sync"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
)

// Key identifies one of a person's identities for routing purposes.
// A single connection may be registered under several keys at once (a person
// who is both a driver and a customer).
type Key struct {
	Role models.ParticipantRole
	ID   string
}

func (k Key) String() string {
	return string(k.Role) + ":" + k.ID
}

// KeysFor builds routing keys from a conversation's participant rows.
func KeysFor(participants []models.ConversationParticipant) []Key {
	keys := make([]Key, 0, len(participants))
	for _, p := range participants {
		keys = append(keys, Key{Role: p.ParticipantRole, ID: p.ParticipantID})
	}
	return keys
}

// Registry maps participant keys to the set of live connections registered
// under that identity. It is the one piece of shared mutable state between
// request handlers, connection lifecycle callbacks and the sweeper's
// broadcasts, so all access goes through the mutex.
type Registry struct {
	mu    sync.RWMutex
	conns map[Key]map[Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[Key]map[Session]struct{}),
	}
}

// Register adds the session to the key's live set. Idempotent.
func (r *Registry) Register(key Key, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.conns[key]
	if set == nil {
		set = make(map[Session]struct{})
		r.conns[key] = set
	}
	set[s] = struct{}{}
}

// Unregister removes the session from the key's set; an emptied key is
// dropped entirely to keep memory bounded.
func (r *Registry) Unregister(key Key, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.conns[key]
	if set == nil {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(r.conns, key)
	}
}

// ConnectionsFor returns the current live set for the key, possibly empty.
func (r *Registry) ConnectionsFor(key Key) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[key]
	out := make([]Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// Len reports how many keys currently have live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Package models defines client-side record types for apiary data and the
// sync metadata carried by every record while it awaits replay against the
// server.
package models

// Action names the remote operation a pending record still owes the server.
type Action string

const (
	ActionNone   Action = ""
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// SyncMeta tags a record that was mutated while disconnected. A record is
// pending exactly when IsOffline is true, and then OfflineAction says which
// remote call reconciliation must replay. The zero value means "in sync".
//
// Invariant: OfflineAction == ActionNone if and only if IsOffline == false.
// Use Tagged and Cleared instead of setting fields directly so the invariant
// holds.
type SyncMeta struct {
	IsOffline     bool   `json:"isOffline,omitempty"`
	OfflineAction Action `json:"offlineAction,omitempty"`
}

// Tagged returns a SyncMeta marking the record pending with the given action.
func Tagged(a Action) SyncMeta {
	if a == ActionNone {
		return SyncMeta{}
	}
	return SyncMeta{IsOffline: true, OfflineAction: a}
}

// Pending reports whether the record still owes the server a call.
func (m SyncMeta) Pending() bool { return m.IsOffline }

// Cleared returns the in-sync zero value.
func (m SyncMeta) Cleared() SyncMeta { return SyncMeta{} }

// Syncable is the constraint every synchronized record type satisfies.
// Methods return modified copies so generic code can rewrite records stored
// by value inside a snapshot slice.
type Syncable[T any] interface {
	RecordID() string
	WithID(id string) T
	Meta() SyncMeta
	WithMeta(m SyncMeta) T
}

package models

import (
	"encoding/json"
	"fmt"
)

// Fields that callers may never change through a patch or send to the server
// as part of a domain payload.
var reservedFields = map[string]struct{}{
	"_id":           {},
	"isOffline":     {},
	"offlineAction": {},
}

// ApplyPatch overlays a partial update onto a record. The patch is a JSON
// merge: listed fields replace the record's values, everything else is kept.
// Reserved fields (id and sync metadata) in the patch are ignored.
func ApplyPatch[T Syncable[T]](rec T, patch map[string]any) (T, error) {
	var zero T

	base, err := toMap(rec)
	if err != nil {
		return zero, err
	}

	for k, v := range patch {
		if _, reserved := reservedFields[k]; reserved {
			continue
		}
		base[k] = v
	}

	data, err := json.Marshal(base)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal patched record: %w", err)
	}

	merged := rec
	if err := json.Unmarshal(data, &merged); err != nil {
		return zero, fmt.Errorf("failed to unmarshal patched record: %w", err)
	}
	return merged, nil
}

// DomainPayload returns the record's domain fields as a map suitable for a
// create or update request body: the local id and sync metadata are stripped
// so temporary ids and pending tags never reach the server.
func DomainPayload(rec any) (map[string]any, error) {
	m, err := toMap(rec)
	if err != nil {
		return nil, err
	}
	for k := range reservedFields {
		delete(m, k)
	}
	return m, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode record fields: %w", err)
	}
	return m, nil
}

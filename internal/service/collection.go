package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/models"
)

// ErrPersistFailed means the whole-collection write did not go through. The
// local cache keeps its previous value; reload to reconcile.
var ErrPersistFailed = errors.New("failed to persist collection")

// decodeCollection turns whatever the store returned for a collection path
// into its non-null members. Keyed objects come back in key order, anything
// that is neither an object nor a list is an empty collection. Members that
// do not decode are returned raw so whole-collection writes can carry them.
func decodeCollection[T any](logger zerolog.Logger, path string, raw json.RawMessage) ([]T, []json.RawMessage) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []T{}, nil
	}

	var members []json.RawMessage
	switch trimmed[0] {
	case '{':
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("failed to parse collection")
			return []T{}, nil
		}
		for _, k := range models.OrderedKeys(keyed) {
			members = append(members, keyed[k])
		}
	case '[':
		if err := json.Unmarshal(trimmed, &members); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("failed to parse collection")
			return []T{}, nil
		}
	default:
		return []T{}, nil
	}

	var undecoded []json.RawMessage
	out := make([]T, 0, len(members))
	for i, m := range members {
		if m = bytes.TrimSpace(m); len(m) == 0 || bytes.Equal(m, []byte("null")) {
			continue
		}
		var v T
		if err := json.Unmarshal(m, &v); err != nil {
			logger.Warn().
				Err(err).
				Str("path", path).
				Int("member", i).
				Msg("keeping undecodable record as stored")
			undecoded = append(undecoded, m)
			continue
		}
		out = append(out, v)
	}
	return out, undecoded
}

// undecodedMembers holds the raw members of the last load that did not decode.
type undecodedMembers struct {
	mu  sync.Mutex
	raw []json.RawMessage
}

func (u *undecodedMembers) Get() []json.RawMessage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.raw
}

func (u *undecodedMembers) Set(raw []json.RawMessage) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.raw = raw
}

// collectionDoc is the document PUT for a collection: the decoded items
// followed by the undecoded members, byte for byte.
func collectionDoc[T any](items []T, undecoded []json.RawMessage) any {
	if len(undecoded) == 0 {
		return items
	}
	doc := make([]any, 0, len(items)+len(undecoded))
	for _, item := range items {
		doc = append(doc, item)
	}
	for _, m := range undecoded {
		doc = append(doc, m)
	}
	return doc
}

package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Domain prefix for section identity hashing. Versioned so the scheme
// can be migrated without colliding with old keys.
const identityDomain = "draftforge/section/v1"

// IdentityKey computes the deterministic fingerprint of a section from
// its semantic inputs: the section type and the set of material ids it
// depends on. Material order is irrelevant, duplicates collapse, and
// presentation fields (title, instructions, target length) do not
// participate. Two submissions describing the same semantic section
// always resolve to the same key.
func IdentityKey(req SectionRequest) string {
	ids := make([]string, 0, len(req.MaterialIDs))
	seen := make(map[string]struct{}, len(req.MaterialIDs))
	for _, id := range req.MaterialIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte(identityDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(req.Type))
	for _, id := range ids {
		// null separators prevent boundary ambiguity between fields
		h.Write([]byte{0x00})
		h.Write([]byte(id))
	}
	return hex.EncodeToString(h.Sum(nil))
}

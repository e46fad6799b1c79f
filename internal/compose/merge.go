package compose

// Merge reconciles a submitted section list against previously persisted
// state. Sections whose identity key already exists keep their status,
// attempts, document reference and last error; only the non-identity
// request fields are refreshed. Unknown keys become fresh pending
// sections. The result follows the submitted order, which is
// authoritative for presentation and cursor semantics. Sections the
// submission no longer names are dropped from the canonical list; their
// documents are left alone.
//
// Merge is pure: neither input is mutated.
func Merge(persisted ResumableState, submitted []SectionRequest) (ResumableState, error) {
	byKey := make(map[string]*SectionState, len(persisted.Sections))
	for i := range persisted.Sections {
		byKey[persisted.Sections[i].Key] = &persisted.Sections[i]
	}

	merged := ResumableState{Sections: make([]SectionState, 0, len(submitted))}
	seen := make(map[string]struct{}, len(submitted))

	for i, req := range submitted {
		if len(req.MaterialIDs) == 0 {
			return ResumableState{}, NewErrNoMaterials(i)
		}
		if _, ok := knownSectionTypes[req.Type]; !ok {
			return ResumableState{}, NewErrUnknownSectionType(req.Type)
		}

		key := IdentityKey(req)
		if _, dup := seen[key]; dup {
			return ResumableState{}, NewErrDuplicateSection(key)
		}
		seen[key] = struct{}{}

		if prev, ok := byKey[key]; ok {
			state := *prev
			state.Request = req
			merged.Sections = append(merged.Sections, state)
			continue
		}

		merged.Sections = append(merged.Sections, SectionState{
			Key:     key,
			Request: req,
			Status:  SectionStatusPending,
		})
	}

	return merged, nil
}

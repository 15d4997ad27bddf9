package catalog

// The merge engine. Both entry points are pure: no I/O, inputs never mutated,
// a new document value is returned on every call. The synchronizer re-runs
// them against freshly fetched state on every conflict retry.

// BuildFresh scaffolds a brand-new document: one entry per catalog name in
// catalog order, with only the target service pinned. The other entries are
// bare placeholders carrying neither tag nor metadata.
func BuildFresh(catalogNames []string, target, ref string, meta Metadata) *Document {
	doc := &Document{Services: make([]Entry, 0, len(catalogNames))}
	for _, name := range catalogNames {
		entry := Entry{Name: name}
		if name == target {
			entry.ImageTag = ref
			entry.Metadata = freshMetadata(meta)
		}
		doc.Services = append(doc.Services, entry)
	}
	return doc
}

// MergeUpdate folds one service's update into an existing document.
//
// The target entry gets its tag replaced and its metadata rebuilt, except
// created_at is carried over when a prior value exists. Every other entry is
// copied unchanged, including entries no longer present in the registry: the
// registry never prunes a document, so catalog drift cannot delete another
// team's entry. A target with no entry yet is appended at the end, not
// inserted in catalog order.
func MergeUpdate(existing *Document, target, ref string, meta Metadata) *Document {
	doc := &Document{Services: make([]Entry, 0, len(existing.Services)+1)}

	found := false
	for _, entry := range existing.Services {
		if entry.Name != target {
			doc.Services = append(doc.Services, entry.clone())
			continue
		}

		found = true
		updated := Entry{Name: target, ImageTag: ref, Metadata: freshMetadata(meta)}
		if entry.Metadata != nil && entry.Metadata.CreatedAt != "" {
			updated.Metadata.CreatedAt = entry.Metadata.CreatedAt
		}
		doc.Services = append(doc.Services, updated)
	}

	if !found {
		doc.Services = append(doc.Services, Entry{
			Name:     target,
			ImageTag: ref,
			Metadata: freshMetadata(meta),
		})
	}

	return doc
}

// freshMetadata copies the caller-supplied metadata and stamps created_at with
// the update time when the caller did not set it explicitly.
func freshMetadata(meta Metadata) *Metadata {
	out := meta
	if out.CreatedAt == "" {
		out.CreatedAt = out.UpdatedAt
	}
	return &out
}

// Package catalog models the deployment state document and the service
// registry, and implements the pure merge operations the synchronizer drives.
//
// A state document lists services in insertion order and pins some of them to
// an image tag. Absence of a pin means "tracks the default branch", which is
// not the same as absence of the entry (that means "not yet tracked").
package catalog

// Document is the persisted deployment state for one target path in the
// GitOps repository.
type Document struct {
	Services []Entry `yaml:"services"`
}

// Entry tracks one service within a document. Name is the immutable key;
// entries are never re-sorted.
type Entry struct {
	Name     string    `yaml:"name"`
	ImageTag string    `yaml:"image_tag,omitempty"`
	Metadata *Metadata `yaml:"metadata,omitempty"`
}

// Metadata records who promoted what and when. All fields are individually
// optional in content; the field set itself is fixed. CreatedAt is written
// exactly once, at first pin, and never overwritten afterwards.
type Metadata struct {
	Author    string `yaml:"author,omitempty"`
	PRURL     string `yaml:"pr_url,omitempty"`
	PRNumber  string `yaml:"pr_number,omitempty"`
	Branch    string `yaml:"branch,omitempty"`
	RunURL    string `yaml:"run_url,omitempty"`
	CreatedAt string `yaml:"created_at,omitempty"`
	UpdatedAt string `yaml:"updated_at,omitempty"`
}

// Pinned reports whether the entry is pinned to a specific image tag.
func (e Entry) Pinned() bool {
	return e.ImageTag != ""
}

// Find returns the index of the entry with the given name, or -1.
func (d *Document) Find(name string) int {
	for i := range d.Services {
		if d.Services[i].Name == name {
			return i
		}
	}
	return -1
}

// clone returns a deep copy of the entry so merges never alias input state.
func (e Entry) clone() Entry {
	out := e
	if e.Metadata != nil {
		meta := *e.Metadata
		out.Metadata = &meta
	}
	return out
}

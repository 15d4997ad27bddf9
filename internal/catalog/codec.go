package catalog

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

// Encode serializes a document to its canonical YAML form.
//
// Encoding is deterministic: key order follows the struct field order, entry
// order is document order, indentation is two spaces. Two encodings of equal
// documents are byte-identical, which is what makes diffs meaningful and
// idempotent re-runs produce empty diffs.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		_ = enc.Close()
		return nil, errors.InternalError("encode state document", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.InternalError("encode state document", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a state document, rejecting anything structurally unexpected.
// A malformed remote document is never auto-repaired; decode failures are
// classified distinctly from "not found" so the synchronizer treats them as
// fatal.
func Decode(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.DecodeError("malformed state document", err)
	}

	if doc.Services == nil {
		return nil, errors.DecodeError("state document has no services list", nil)
	}

	seen := make(map[string]struct{}, len(doc.Services))
	for i, entry := range doc.Services {
		if entry.Name == "" {
			return nil, errors.DecodeError("state document entry has empty name", nil).
				WithContext("index", i)
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, errors.DecodeError(fmt.Sprintf("duplicate service %q in state document", entry.Name), nil)
		}
		seen[entry.Name] = struct{}{}
	}

	return &doc, nil
}

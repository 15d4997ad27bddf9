// Package report renders the human-facing side of a promotion: the markdown
// summary table and a line diff of the state document. Rendering is pure and
// never feeds back into merge decisions.
package report

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/promoter/internal/catalog"
)

// SummaryInput carries everything the summary needs. The document is the
// final committed state, in commit order.
type SummaryInput struct {
	Path          string
	Document      *catalog.Document
	CommitMessage string
	CommitURL     string
	Attempts      int
}

// trackingMarker is what unpinned entries render as. External consumers read
// it from comments, keep it stable.
const trackingMarker = "_tracking default branch_"

// BuildSummary renders the promotion summary as markdown: the target path,
// one table row per entry in document order, and the commit line.
func BuildSummary(in SummaryInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Promotion: `%s`\n\n", in.Path)
	b.WriteString("| Service | Ref |\n")
	b.WriteString("| --- | --- |\n")
	if in.Document != nil {
		for _, entry := range in.Document.Services {
			fmt.Fprintf(&b, "| %s | %s |\n", entry.Name, refCell(entry))
		}
	}
	b.WriteString("\n")

	if in.CommitURL != "" {
		fmt.Fprintf(&b, "Commit: [%s](%s)\n", in.CommitMessage, in.CommitURL)
	} else {
		fmt.Fprintf(&b, "Commit: %s\n", in.CommitMessage)
	}

	if in.Attempts > 1 {
		fmt.Fprintf(&b, "\nCommitted after %d attempts.\n", in.Attempts)
	}

	return b.String()
}

func refCell(entry catalog.Entry) string {
	if !entry.Pinned() {
		return trackingMarker
	}
	ref := ShortRef(entry.ImageTag)
	if entry.Metadata != nil && entry.Metadata.PRURL != "" {
		return fmt.Sprintf("[`%s`](%s)", ref, entry.Metadata.PRURL)
	}
	return fmt.Sprintf("`%s`", ref)
}

// ShortRef shortens a commit-like reference to its first 8 characters.
func ShortRef(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}

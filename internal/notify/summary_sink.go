package notify

import (
	"context"

	"git.home.luguber.info/inful/promoter/internal/gha"
)

// SummarySink appends the report to the workflow step summary.
type SummarySink struct {
	cmds *gha.Commands
}

// NewSummarySink wraps the Actions runner integration as a sink.
func NewSummarySink(cmds *gha.Commands) *SummarySink {
	return &SummarySink{cmds: cmds}
}

func (s *SummarySink) Name() string { return "summary" }

func (s *SummarySink) Publish(_ context.Context, rep *Report) error {
	return s.cmds.WriteSummary(renderBody(rep))
}

package commands

import (
	"git.home.luguber.info/inful/promoter/internal/promote"
)

// PreviewCmd implements the 'preview' command: pin a service's freshly built
// image in the preview document of its source branch.
type PreviewCmd struct {
	PromoteFlags
}

func (c *PreviewCmd) Run(_ *Global, root *CLI) error {
	return runPromotion(root, promote.EnvPreview, &c.PromoteFlags)
}

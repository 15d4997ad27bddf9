package commands

import (
	"git.home.luguber.info/inful/promoter/internal/promote"
)

// ProductionCmd implements the 'production' command: pin a service's released
// image in its production document. Branch is metadata only here; production
// documents are keyed by service, not branch.
type ProductionCmd struct {
	PromoteFlags
}

func (c *ProductionCmd) Run(_ *Global, root *CLI) error {
	return runPromotion(root, promote.EnvProduction, &c.PromoteFlags)
}

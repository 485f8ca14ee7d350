package chunking

import (
	"log/slog"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/tablerepair"
)

// PagePolicy applies the per-page chunking policy: table pages become exactly
// one chunk (splitting a table destroys row/column alignment), narrative
// pages go through the windowed splitter. Table pages are run through the
// rotation repairer first.
type PagePolicy struct {
	splitter *Splitter
	repairer *tablerepair.Repairer
	onRepair func()
}

func NewPagePolicy(splitter *Splitter, repairer *tablerepair.Repairer, onRepair func()) *PagePolicy {
	return &PagePolicy{
		splitter: splitter,
		repairer: repairer,
		onRepair: onRepair,
	}
}

func (p *PagePolicy) ChunkPage(page domain.Page) (domain.PageClass, []string) {
	class := Classify(page.Text)
	if class != domain.PageTable {
		return class, p.splitter.Split(page.Text)
	}

	text := page.Text
	if p.repairer != nil {
		fixed, repaired := p.repairer.RepairText(text)
		if repaired {
			slog.Info("table_rotation_repaired", "page", page.Number)
			text = fixed
			if p.onRepair != nil {
				p.onRepair()
			}
		}
	}
	return class, []string{text}
}

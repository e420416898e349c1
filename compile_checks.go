package escrow

import "github.com/goliatone/go-escrow/core"

var (
	_ LedgerSurface  = (*core.Ledger)(nil)
	_ DeciderSurface = (*core.Decider)(nil)
)

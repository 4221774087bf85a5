package linker

import (
	"github.com/rjlee/actual-tx-linker/internal/actual"
)

// Keep-side policies.
const (
	KeepOutgoing = "outgoing"
	KeepIncoming = "incoming"
)

// ChooseKeepDrop decides which side of a matched pair survives. When
// preferReconciled is set and exactly one side is reconciled, that side
// wins; otherwise the keep policy decides, defaulting to outgoing.
func ChooseKeepDrop(out, inc actual.Transaction, keep string, preferReconciled bool) (actual.Transaction, actual.Transaction) {
	if preferReconciled && out.Reconciled != inc.Reconciled {
		if out.Reconciled {
			return out, inc
		}
		return inc, out
	}
	if keep == KeepIncoming {
		return inc, out
	}
	return out, inc
}

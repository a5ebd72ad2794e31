// Package strategy defines entry/exit policies over minute-candle history.
// Policies are pure decision rules: they see a look-back-only window and the
// current position, and never touch the ledger or the series directly.
package strategy

import (
	"github.com/alanyoungcy/fadebot/internal/domain"
)

// Policy decides when to enter and when to exit. Implementations must be
// deterministic functions of their inputs; the same window always yields the
// same answer, which is what makes grid search reruns reproducible.
type Policy interface {
	Name() string
	ShouldEnter(h History) bool
	ShouldExit(pos *domain.Position, h History) bool
}

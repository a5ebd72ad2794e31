package domain

import "time"

// RunStatus tracks the lifecycle of a backtest, search, or paper session.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one evaluation session. Search runs cover many candidates; backtest
// and paper runs cover one.
type Run struct {
	ID         string
	Mode       string // "backtest", "search", "paper"
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Candidates int
	Contracts  int
	Notes      string
}

// Package cloud runs a one-off sync with the configured mirror.
package cloud

import (
	"context"
	"errors"
	"io"
	"time"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/printers"
	"tableflip.dev/compound/pkg/syncer"
)

type Sync struct {
	Service *app.Service
	JSON    bool
	Out     io.Writer
}

// Result is what a sync prints as JSON.
type Result struct {
	Changed  bool      `json:"changed"`
	Skipped  bool      `json:"skipped,omitempty"`
	Pulled   int       `json:"pulled"`
	Merged   int       `json:"merged"`
	Pushed   int       `json:"pushed"`
	Flushed  int       `json:"flushed"`
	Pending  []string  `json:"pending"`
	LastSync time.Time `json:"lastSync,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// NewResult flattens r for output.
func NewResult(r syncer.Result, pending []string, last time.Time) Result {
	out := Result{
		Changed:  r.Changed,
		Skipped:  r.Skipped,
		Pulled:   r.Pulled,
		Merged:   r.Merged,
		Pushed:   r.Pushed,
		Flushed:  r.Flushed,
		Pending:  pending,
		LastSync: last,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

// Do syncs and prints the outcome. A failed sync is also returned as an
// error so the command exits non-zero.
func (n *Sync) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not sync, no service")
	}
	r := n.Service.SyncResult(ctx)
	last := n.Service.LastSync()

	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		if err := pp.JSON(NewResult(r, n.Service.PendingIDs(), last)); err != nil {
			return err
		}
	} else {
		pp.Sync(r, last)
	}
	return r.Err
}

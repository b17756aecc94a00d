package deposit

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/printers"
)

// Cloud states reported after a deposit.
const (
	CloudOff     = "off"
	CloudSaved   = "saved"
	CloudQueued  = "queued"
	CloudFailed  = "failed"
	CloudWaiting = "in progress"
)

type Deposit struct {
	Service *app.Service

	// Day defaults to today.
	Day      entry.Day
	Text     string
	Health   []string
	Energy   int
	Tomorrow string

	// Wait bounds how long to wait on the cloud save. Zero does not wait.
	Wait time.Duration

	JSON bool
	Out  io.Writer
}

// Result is what a deposit prints as JSON.
type Result struct {
	Entry *entry.Entry `json:"entry"`
	Cloud string       `json:"cloud"`
	Error string       `json:"error,omitempty"`
}

func (n *Deposit) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not deposit, no service")
	}
	health, err := entry.ParseHealth(n.Health)
	if err != nil {
		return err
	}
	now := n.Service.Now()
	day := n.Day
	if day.IsZero() {
		day = entry.DayOf(now)
	}
	if day.After(entry.DayOf(now)) {
		return errors.New("can not deposit into the future")
	}

	e := entry.New(day, n.Text, now)
	e.Health = health
	e.Energy = n.Energy
	e.Tomorrow = n.Tomorrow
	if err := e.Validate(); err != nil {
		return err
	}

	saved, up := n.Service.Save(ctx, e)
	res := Result{Entry: saved, Cloud: n.cloud(ctx, up)}
	if err := up.Err(); err != nil && res.Cloud == CloudFailed {
		res.Error = err.Error()
	}

	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		return pp.JSON(res)
	}
	pp.Entry(saved)
	pp.Status(statusLine(res))
	return nil
}

func (n *Deposit) cloud(ctx context.Context, up *app.Upload) string {
	if !n.Service.CloudEnabled() {
		return CloudOff
	}
	if n.Wait <= 0 {
		return CloudQueued
	}
	wctx, cancel := context.WithTimeout(ctx, n.Wait)
	defer cancel()
	_ = up.Wait(wctx)
	select {
	case <-up.Done():
	default:
		return CloudWaiting
	}
	if up.Confirmed() {
		return CloudSaved
	}
	return CloudFailed
}

func statusLine(r Result) (string, *color.Color) {
	switch r.Cloud {
	case CloudSaved:
		return "deposited, saved to cloud", color.New(color.FgGreen)
	case CloudQueued, CloudWaiting:
		return "deposited, cloud save " + r.Cloud, color.New(color.FgYellow)
	case CloudFailed:
		return "deposited locally, cloud save failed and will retry on next sync", color.New(color.FgYellow)
	default:
		return "deposited", color.New(color.FgGreen)
	}
}

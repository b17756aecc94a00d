// Package summary prints the streak stats and the compound valuation.
package summary

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/printers"
)

type Stats struct {
	Service *app.Service
	JSON    bool
	Out     io.Writer
}

func (n *Stats) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not get stats, no service")
	}
	s := n.Service.Stats(ctx)
	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		return pp.JSON(s)
	}
	pp.Stats(s)
	return nil
}

type Value struct {
	Service    *app.Service
	Curve      bool
	Projection bool
	JSON       bool
	Out        io.Writer
}

func (n *Value) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not value, no service")
	}
	v := n.Service.Valuation(ctx)
	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		if !n.Curve {
			v.GrowthCurve = nil
		}
		if !n.Projection {
			v.Projection = nil
		}
		return pp.JSON(v)
	}
	pp.Valuation(v, n.Curve, n.Projection)
	return nil
}

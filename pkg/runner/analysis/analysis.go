package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/entry"
	"tableflip.dev/compound/pkg/printers"
)

// Analysis attaches a reflection to an existing deposit.
type Analysis struct {
	Service *app.Service
	Day     entry.Day
	Text    string
	Out     io.Writer
}

func (n *Analysis) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not save analysis, no service")
	}
	if n.Day.IsZero() {
		return errors.New("analysis needs a day")
	}
	text := strings.TrimSpace(n.Text)
	if text == "" {
		return errors.New("analysis text is required")
	}

	id := n.Day.String()
	found := n.Service.SaveAnalysis(ctx, id, text)
	pp := printers.PrettyPrint{Out: n.Out}
	switch {
	case found:
		pp.Status("analysis saved for "+id, color.New(color.FgGreen))
	case n.Service.CloudEnabled():
		pp.Status("no local deposit for "+id+", analysis sent to cloud only", color.New(color.FgYellow))
	default:
		return fmt.Errorf("no deposit for %s", id)
	}
	return nil
}

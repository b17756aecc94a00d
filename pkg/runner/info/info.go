package info

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/compound/pkg/app"
	"tableflip.dev/compound/pkg/config"
	"tableflip.dev/compound/pkg/printers"
	"tableflip.dev/compound/pkg/remote"
)

type Info struct {
	Config  *config.Config
	Service *app.Service
	JSON    bool
	Out     io.Writer
}

// Details is what info prints as JSON. Secrets are never included.
type Details struct {
	ConfigPathEnv string        `json:"configPathEnv,omitempty"`
	ConfigFile    string        `json:"configFile,omitempty"`
	Path          string        `json:"path"`
	DeviceID      string        `json:"deviceId"`
	Deposits      int           `json:"deposits"`
	Remote        remote.Config `json:"remote"`
	Cloud         bool          `json:"cloud"`
	Pending       []string      `json:"pending"`
	LastSync      time.Time     `json:"lastSync,omitempty"`
}

func (n *Info) Do(ctx context.Context) error {
	if n.Config == nil {
		var err error
		n.Config, err = config.Load()
		if err != nil {
			return err
		}
	}
	if n.Service == nil {
		return errors.New("failed to open the journal")
	}

	d := Details{
		ConfigPathEnv: os.Getenv(config.EnvConfigPath),
		ConfigFile:    n.Config.File,
		Path:          n.Config.BasePath(),
		DeviceID:      n.Service.DeviceID(),
		Deposits:      len(n.Service.List(ctx)),
		Remote:        n.Config.Remote,
		Cloud:         n.Service.CloudEnabled(),
		Pending:       n.Service.PendingIDs(),
		LastSync:      n.Service.LastSync(),
	}

	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		return pp.JSON(d)
	}

	out := n.Out
	if out == nil {
		out = color.Output
	}
	faint := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	if d.ConfigPathEnv != "" {
		tbl.AddRow(config.EnvConfigPath, d.ConfigPathEnv)
	} else {
		tbl.AddRow(config.EnvConfigPath, faint.Sprint("not set"))
	}
	if d.ConfigFile != "" {
		tbl.AddRow("config file", d.ConfigFile)
	} else {
		tbl.AddRow("config file", faint.Sprint("none, using defaults"))
	}
	tbl.AddRow("path", d.Path)
	tbl.AddRow("device", d.DeviceID)
	tbl.AddRow("deposits", d.Deposits)
	if d.Cloud {
		tbl.AddRow("cloud", fmt.Sprintf("%s (table %s)", d.Remote.Driver, d.Remote.TableName()))
		if d.Remote.URL != "" {
			tbl.AddRow("url", d.Remote.URL)
		}
	} else {
		tbl.AddRow("cloud", faint.Sprint("off"))
	}
	if len(d.Pending) > 0 {
		tbl.AddRow("pending", strings.Join(d.Pending, ", "))
	} else {
		tbl.AddRow("pending", faint.Sprint("none"))
	}
	if !d.LastSync.IsZero() {
		tbl.AddRow("last sync", d.LastSync.Local().Format(time.RFC1123))
	} else {
		tbl.AddRow("last sync", faint.Sprint("never"))
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(out, tbl)
	return nil
}

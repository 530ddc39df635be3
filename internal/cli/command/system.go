package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapback/internal/cli/output"
	"github.com/yndnr/snapback/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "System commands",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show server status",
				Action: systemStatus,
			},
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
		},
	}
}

type statusView struct {
	Status           string         `json:"status" yaml:"status"`
	Engine           string         `json:"engine" yaml:"engine"`
	Entities         int            `json:"entities" yaml:"entities"`
	PendingSnapshots int            `json:"pending_snapshots" yaml:"pending_snapshots"`
	UptimeSeconds    int64          `json:"uptime_seconds" yaml:"uptime_seconds"`
	Build            buildinfo.Info `json:"build" yaml:"build"`
}

// Table lays the status out as field/value pairs.
func (s statusView) Table() *output.Table {
	t := &output.Table{}
	t.SetHeaders("FIELD", "VALUE")
	t.AddRow("Status", s.Status)
	t.AddRow("Engine", s.Engine)
	t.AddRow("Users", fmt.Sprint(s.Entities))
	t.AddRow("Pending snapshots", fmt.Sprint(s.PendingSnapshots))
	t.AddRow("Uptime", (time.Duration(s.UptimeSeconds) * time.Second).String())
	t.AddRow("Version", s.Build.Version)
	t.AddRow("Commit", s.Build.Commit)
	return t
}

func systemStatus(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var status statusView
	if err := EnsureConnected(c).Get(ctx, "/admin/v1/status", &status); err != nil {
		return err
	}
	return render(c, status)
}

type healthView struct {
	Status string `json:"status" yaml:"status"`
	Time   string `json:"time" yaml:"time"`
}

func systemHealth(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	client := EnsureConnected(c)
	var health healthView
	if err := client.Get(ctx, "/health", &health); err != nil {
		PrintError(c, "health check failed: %v", err)
		return cli.Exit("server unhealthy", 1)
	}

	if ParseGlobalFlags(c).Output != output.FormatTable {
		return render(c, health)
	}
	fmt.Fprintf(c.App.Writer, "Server is %s\n", health.Status)
	fmt.Fprintf(c.App.Writer, "  Target: %s\n", client.BaseURL())
	return nil
}

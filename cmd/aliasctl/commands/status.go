package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/cmd/aliasctl/cmdutil"
	"github.com/marmos91/aliasd/internal/cli/output"
	"github.com/marmos91/aliasd/internal/cli/timeutil"
	"github.com/marmos91/aliasd/pkg/apiclient"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health",
	Long: `Query the liveness and readiness probes of the server.

Examples:
  aliasctl status
  aliasctl status -o json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

// serverStatus is what status prints.
type serverStatus struct {
	Server string `json:"server" yaml:"server"`
	Status string `json:"status" yaml:"status"`
	Ready  bool   `json:"ready" yaml:"ready"`
	Uptime string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := cmdutil.OpenStore()
	if err != nil {
		return err
	}
	serverURL := cmdutil.ResolveServerURL(store)
	client := apiclient.New(serverURL)

	status := serverStatus{Server: serverURL}

	health, err := client.Health()
	if err != nil {
		status.Status = "unreachable"
		status.Error = err.Error()
	} else {
		status.Status = health.Status
		if uptime, ok := health.Data["uptime"].(string); ok {
			status.Uptime = timeutil.FormatUptime(uptime)
		}
		if _, err := client.Ready(); err != nil {
			status.Error = err.Error()
		} else {
			status.Ready = true
		}
	}

	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if printer.Format() != output.FormatTable {
		return printer.Print(status)
	}

	pairs := [][2]string{
		{"Server", status.Server},
		{"Status", status.Status},
		{"Ready", fmt.Sprint(status.Ready)},
		{"Uptime", cmdutil.EmptyOr(status.Uptime, "-")},
	}
	if status.Error != "" {
		pairs = append(pairs, [2]string{"Error", status.Error})
	}
	return output.KeyValues(cmd.OutOrStdout(), pairs)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/aliasd/cmd/aliasctl/cmdutil"
	"github.com/marmos91/aliasd/internal/cli/output"
	"github.com/marmos91/aliasd/internal/cli/timeutil"
	"github.com/marmos91/aliasd/pkg/apiclient"
)

var checkCmd = &cobra.Command{
	Use:   "check <alias>",
	Short: "Show where an alias points",
	Long: `Resolve an alias through the public redirect without following it.

Examples:
  aliasctl check docs`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var addCmd = &cobra.Command{
	Use:   "add <alias> <url>",
	Short: "Create or replace an alias",
	Long: `Create an alias pointing at url. An existing alias is replaced and
becomes yours.

Examples:
  aliasctl add docs https://example.com/documentation`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:     "delete <alias>",
	Aliases: []string{"rm"},
	Short:   "Delete one of your aliases",
	Long: `Delete an alias you own. Asks for confirmation unless --force is set.

Examples:
  aliasctl delete docs
  aliasctl delete docs --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your aliases",
	Long: `List the aliases owned by the logged-in user.

Examples:
  aliasctl list
  aliasctl list -o json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}

func runCheck(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	to, err := client.ResolveAlias(args[0])
	if err != nil {
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("no such alias: %s", args[0])
		}
		return cmdutil.DescribeError(err)
	}

	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	result := apiclient.Alias{From: args[0], To: to}
	if printer.Format() == output.FormatTable {
		printer.Printf("%s -> %s\n", result.From, result.To)
		return nil
	}
	return printer.Print(result)
}

func runAdd(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	resp, err := client.CreateAlias(args[0], args[1])
	if err != nil {
		return cmdutil.DescribeError(err)
	}

	return cmdutil.PrintResourceWithSuccess(cmd.OutOrStdout(), resp,
		fmt.Sprintf("Alias %s -> %s saved", resp.From, resp.To))
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation(cmd.OutOrStdout(), "alias", args[0], deleteForce, func() error {
		if err := client.DeleteAlias(args[0]); err != nil {
			if apiclient.IsNotFound(err) {
				return fmt.Errorf("alias %s does not exist or is not yours", args[0])
			}
			return cmdutil.DescribeError(err)
		}
		return nil
	})
}

// aliasList renders aliases as a table.
type aliasList []apiclient.Alias

func (l aliasList) Headers() []string {
	return []string{"Alias", "Destination", "Updated"}
}

func (l aliasList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, a := range l {
		rows = append(rows, []string{a.From, a.To, timeutil.FormatTime(a.UpdatedAt)})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	aliases, err := client.ListAliases()
	if err != nil {
		return cmdutil.DescribeError(err)
	}
	if aliases == nil {
		aliases = []apiclient.Alias{}
	}

	return cmdutil.PrintOutput(cmd.OutOrStdout(), aliases, len(aliases) == 0,
		"No aliases. Create one with 'aliasctl add <alias> <url>'.", aliasList(aliases))
}

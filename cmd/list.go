package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored datasets, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		list, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if listJSON {
			return writeJSON(out, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "(no datasets)")
			return nil
		}
		rows := make([][]string, len(list))
		for i, d := range list {
			rows[i] = []string{
				d.ID, d.Name, d.FileName, utils.HumanBytes(d.FileSize),
				fmt.Sprint(d.RowCount), fmt.Sprint(d.ColumnCount),
				d.CreatedAt.Local().Format("2006-01-02 15:04"),
			}
		}
		fmt.Fprintln(out, renderTable([]string{"ID", "Name", "File", "Size", "Rows", "Cols", "Created"}, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
}

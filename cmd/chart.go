package cmd

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

const barWidth = 40

var (
	chartCategory string
	chartValues   []string
	chartJSON     bool
)

var chartCmd = &cobra.Command{
	Use:   "chart <id>",
	Short: "Average value columns per category (at most 20 groups)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chartCategory == "" {
			return fmt.Errorf("--category is required")
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		series, err := svc.Chart(cmd.Context(), args[0], chartCategory, chartValues)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if chartJSON {
			return writeJSON(out, series)
		}
		for _, s := range series {
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("mean(%s) by %s", s.Value, s.Category)))
			if len(s.Points) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("(no rows)"))
				continue
			}
			width, maxAbs := 0, 0.0
			for _, p := range s.Points {
				width = max(width, utf8.RuneCountInString(label(p.Category)))
				maxAbs = max(maxAbs, abs(p.Value))
			}
			width = min(width, maxCellWidth)
			for _, p := range s.Points {
				fmt.Fprintf(out, "  %-*s │ %s %s\n", width, truncate(label(p.Category), width),
					bar(p.Value, maxAbs, barWidth), strconv.FormatFloat(p.Value, 'f', -1, 64))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func label(s string) string {
	if s == "" {
		return "(blank)"
	}
	return s
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVarP(&chartCategory, "category", "c", "", "string column to group by")
	chartCmd.Flags().StringSliceVarP(&chartValues, "value", "v", nil, "number column to average (repeatable)")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "print as JSON")
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/datasets"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

var (
	upName       string
	upDesc       string
	upDelimiter  string
	upSheetName  string
	upSheetIndex int
	upMaxRows    int
	upJSON       bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a CSV/TSV/XLSX file as a new dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := ingest.Options{SheetName: upSheetName, SheetIndex: upSheetIndex}
		d, err := parseDelimiter(upDelimiter)
		if err != nil {
			return err
		}
		opt.Delimiter = d
		if upMaxRows > 0 {
			opt.MaxRows = upMaxRows
		} else if cfg != nil {
			opt.MaxRows = cfg.MaxRows
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		res, err := svc.Upload(cmd.Context(), datasets.UploadRequest{
			Path:        args[0],
			Name:        upName,
			Description: upDesc,
			Ingest:      opt,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if upJSON {
			return writeJSON(out, res.Dataset)
		}
		ds := res.Dataset
		okLine(out, "Uploaded %s as %s", ds.FileName, ds.ID)
		fmt.Fprintf(out, "%s  %d rows × %d columns, %s\n", titleStyle.Render(ds.Name), ds.RowCount, ds.ColumnCount, utils.HumanBytes(ds.FileSize))
		rows := make([][]string, len(ds.Columns))
		for i, c := range ds.Columns {
			rows[i] = []string{fmt.Sprint(c.Index), c.Name, string(c.Type)}
		}
		fmt.Fprintln(out, renderTable([]string{"#", "Column", "Type"}, rows))
		for _, w := range res.Warnings {
			warnLine(cmd.ErrOrStderr(), "%s", w)
		}
		return nil
	},
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s (use ','|'tab'|';'|'|')", s)
	}
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVarP(&upName, "name", "n", "", "dataset name (default: file name)")
	uploadCmd.Flags().StringVarP(&upDesc, "desc", "d", "", "dataset description")
	uploadCmd.Flags().StringVar(&upDelimiter, "delimiter", "", "CSV delimiter: ',' | 'tab' | ';' | '|' (default by extension)")
	uploadCmd.Flags().StringVar(&upSheetName, "sheet-name", "", "XLSX: sheet name to read")
	uploadCmd.Flags().IntVar(&upSheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (default first sheet)")
	uploadCmd.Flags().IntVar(&upMaxRows, "max-rows", 0, "keep at most this many rows (overrides config)")
	uploadCmd.Flags().BoolVar(&upJSON, "json", false, "print the stored dataset as JSON")
}

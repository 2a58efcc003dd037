package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/datasets"
	"github.com/KaramelBytes/tabula-cli/internal/query"
	"github.com/KaramelBytes/tabula-cli/internal/table"
)

var (
	viewPage      int
	viewLimit     int
	viewPages     int
	viewSearch    string
	viewSortBy    string
	viewSortOrder string
	viewJSON      bool
)

var viewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show a page of rows with optional search and sort",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		f := cmd.Flags()
		if f.Changed("page") {
			params.Set("page", strconv.Itoa(viewPage))
		}
		if f.Changed("limit") {
			params.Set("limit", strconv.Itoa(viewLimit))
		}
		if viewSearch != "" {
			params.Set("search", viewSearch)
		}
		if viewSortBy != "" {
			params.Set("sortBy", viewSortBy)
		}
		if viewSortOrder != "" {
			params.Set("sortOrder", viewSortOrder)
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		v, err := svc.View(cmd.Context(), args[0], params)
		if err != nil {
			return err
		}
		if debug {
			spew.Fdump(cmd.ErrOrStderr(), v.Request)
		}

		views := []*datasets.View{v}
		if viewPages > 1 {
			views = morePages(v, viewPages, svc.Workers)
		}

		out := cmd.OutOrStdout()
		if viewJSON {
			if len(views) == 1 {
				return writeJSON(out, v)
			}
			return writeJSON(out, views)
		}
		for _, pv := range views {
			renderView(cmd, pv)
		}
		return nil
	},
}

// morePages runs the following pages of the same request concurrently.
func morePages(v *datasets.View, n, workers int) []*datasets.View {
	reqs := make([]query.Request, n)
	for i := range reqs {
		reqs[i] = v.Request
		reqs[i].Page = v.Request.Page + i
	}
	results := query.RunAll(v.Dataset.Table, reqs, workers)
	out := make([]*datasets.View, 0, n)
	for i, res := range results {
		if i > 0 && len(res.Rows) == 0 {
			break
		}
		out = append(out, &datasets.View{Dataset: v.Dataset, Request: reqs[i], Result: res})
	}
	return out
}

func renderView(cmd *cobra.Command, v *datasets.View) {
	out := cmd.OutOrStdout()
	p := v.Pagination
	fmt.Fprintf(out, "%s  page %d/%d · %d matching rows\n", titleStyle.Render(v.Dataset.Name), p.CurrentPage, p.TotalPages, p.TotalRows)
	if len(v.Rows) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("(no rows)"))
		return
	}
	names := v.Dataset.Table.Names()
	rows := make([][]string, len(v.Rows))
	for i, r := range v.Rows {
		rows[i] = cells(r, names)
	}
	fmt.Fprintln(out, renderTable(names, rows))
}

func cells(r table.Row, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = r.Get(n).String()
	}
	return out
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().IntVar(&viewPage, "page", query.DefaultPage, "1-based page number")
	viewCmd.Flags().IntVar(&viewLimit, "limit", query.DefaultLimit, "rows per page")
	viewCmd.Flags().IntVar(&viewPages, "pages", 1, "number of consecutive pages to show")
	viewCmd.Flags().StringVarP(&viewSearch, "search", "s", "", "case-insensitive substring filter over all cells")
	viewCmd.Flags().StringVar(&viewSortBy, "sort-by", "", "column to sort by")
	viewCmd.Flags().StringVar(&viewSortOrder, "sort-order", "", "asc|desc (default asc)")
	viewCmd.Flags().BoolVar(&viewJSON, "json", false, "print as JSON")
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags clears values and Changed state that cobra keeps between
// Execute calls on the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestCLI_Upload_View_Chart_Delete(t *testing.T) {
	home := isolate(t)
	dataDir := filepath.Join(home, "sets")
	csvPath := filepath.Join(home, "sales.csv")
	body := "city,sales,profit\nNY,10,1\nLA,20,2\nNY,30,3\n"
	if err := os.WriteFile(csvPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	var ds struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		RowCount int    `json:"row_count"`
	}
	out := runCmd(t, "--data-dir", dataDir, "upload", csvPath, "--name", "Sales", "--json")
	if err := json.Unmarshal([]byte(out), &ds); err != nil {
		t.Fatalf("decode upload output: %v\n%s", err, out)
	}
	if ds.ID == "" || ds.Name != "Sales" || ds.RowCount != 3 {
		t.Fatalf("unexpected dataset: %+v", ds)
	}

	out = runCmd(t, "--data-dir", dataDir, "list")
	if !strings.Contains(out, "Sales") || !strings.Contains(out, ds.ID) {
		t.Fatalf("list missing dataset:\n%s", out)
	}

	var view struct {
		Rows       []map[string]any `json:"rows"`
		Pagination struct {
			TotalRows  int `json:"totalRows"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	out = runCmd(t, "--data-dir", dataDir, "view", ds.ID, "--search", "ny", "--sort-by", "sales", "--sort-order", "desc", "--limit", "1", "--json")
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode view output: %v\n%s", err, out)
	}
	if view.Pagination.TotalRows != 2 || view.Pagination.TotalPages != 2 || len(view.Rows) != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Rows[0]["sales"] != 30.0 {
		t.Fatalf("first row sales = %v, want 30", view.Rows[0]["sales"])
	}

	out = runCmd(t, "--data-dir", dataDir, "view", ds.ID, "--limit", "2", "--pages", "3")
	if strings.Count(out, "matching rows") != 2 {
		t.Fatalf("expected two rendered pages:\n%s", out)
	}

	var series []struct {
		Value  string `json:"value"`
		Points []struct {
			Category string  `json:"category"`
			Value    float64 `json:"value"`
		} `json:"points"`
	}
	out = runCmd(t, "--data-dir", dataDir, "chart", ds.ID, "-c", "city", "-v", "sales", "-v", "profit", "--json")
	if err := json.Unmarshal([]byte(out), &series); err != nil {
		t.Fatalf("decode chart output: %v\n%s", err, out)
	}
	if len(series) != 2 || series[0].Value != "sales" || len(series[0].Points) != 2 {
		t.Fatalf("unexpected series: %+v", series)
	}
	if p := series[0].Points[0]; p.Category != "NY" || p.Value != 20 {
		t.Fatalf("NY mean = %+v, want 20", p)
	}

	out = runCmd(t, "--data-dir", dataDir, "chart", ds.ID, "-c", "city", "-v", "sales")
	if !strings.Contains(out, "mean(sales) by city") {
		t.Fatalf("chart output missing title:\n%s", out)
	}

	if _, err := execCmd("--data-dir", dataDir, "chart", ds.ID, "-c", "sales", "-v", "profit"); err == nil {
		t.Fatalf("expected type error for numeric category")
	}

	out = runCmd(t, "--data-dir", dataDir, "delete", ds.ID)
	if !strings.Contains(out, "Deleted") {
		t.Fatalf("delete output: %s", out)
	}
	out = runCmd(t, "--data-dir", dataDir, "list")
	if !strings.Contains(out, "(no datasets)") {
		t.Fatalf("expected empty list:\n%s", out)
	}
	if _, err := execCmd("--data-dir", dataDir, "view", ds.ID); err == nil {
		t.Fatalf("expected error viewing deleted dataset")
	}
}

func TestCLI_UploadRejectsBadInput(t *testing.T) {
	home := isolate(t)
	txt := filepath.Join(home, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execCmd("upload", txt); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := execCmd("upload", txt, "--delimiter", "#"); err == nil {
		t.Fatalf("expected delimiter error")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)
	runCmd(t, "config", "set", "workers", "6")
	runCmd(t, "config", "set", "log_format", "json")
	if _, err := os.Stat(filepath.Join(home, ".tabula", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "workers: 6") || !strings.Contains(out, "log_format: json") {
		t.Fatalf("config show:\n%s", out)
	}
	if _, err := execCmd("config", "set", "workers", "zero"); err == nil {
		t.Fatalf("expected invalid int error")
	}
	if _, err := execCmd("config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const surveyCSV = `id,age,income,education,weight
1,25,30000,12,1.2
2,34,42000,16,0.8
3,,38000,14,1.0
4,45,500000,18,1.5
5,52,51000,16,0.9
6,29,,12,1.1
7,41,47000,14,1.3
8,38,44000,16,0.7
9,60,55000,18,1.0
10,23,29000,12,1.4
`

// resetFlags restores every flag to its default so package-level flag variables do
// not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "survey.csv"), []byte(surveyCSV), 0o644))
	return home
}

func TestInspectJSON(t *testing.T) {
	home := setup(t)
	out, err := runCmd(t, "inspect", filepath.Join(home, "survey.csv"), "--json")
	require.NoError(t, err)

	var sum struct {
		Rows    int `json:"rows"`
		Columns int `json:"columns"`
		Missing []struct {
			Column string `json:"column"`
		} `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 10, sum.Rows)
	assert.Equal(t, 5, sum.Columns)
	require.Len(t, sum.Missing, 2)
	assert.Equal(t, "age", sum.Missing[0].Column)
}

func TestInspectTable(t *testing.T) {
	home := setup(t)
	out, err := runCmd(t, "inspect", filepath.Join(home, "survey.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Rows: 10")
	assert.Contains(t, out, "income")
	assert.Contains(t, out, "numeric")
}

func TestCleanJSONWithWeights(t *testing.T) {
	home := setup(t)
	out, err := runCmd(t, "clean", filepath.Join(home, "survey.csv"),
		"--impute", "mean", "--detect", "iqr", "--handle", "winsorize", "--weights", "weight", "--json")
	require.NoError(t, err)

	var res struct {
		Rows           int                                   `json:"rows"`
		CleaningLog    []string                              `json:"cleaning_log"`
		WeightsApplied bool                                  `json:"weights_applied"`
		Estimates      map[string]map[string]json.RawMessage `json:"estimates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 10, res.Rows)
	assert.True(t, res.WeightsApplied)
	assert.Contains(t, res.CleaningLog, "Applied weights from column: weight")
	for _, name := range []string{"age", "income", "education"} {
		require.Contains(t, res.Estimates, name)
		assert.Contains(t, res.Estimates[name], "unweighted")
		assert.Contains(t, res.Estimates[name], "weighted")
	}
}

func TestCleanWithRunConfigAndOutputs(t *testing.T) {
	home := setup(t)
	rc := filepath.Join(home, "run.yaml")
	require.NoError(t, os.WriteFile(rc, []byte("imputation:\n  method: median\nweights:\n  column: weight\n"), 0o644))

	out, err := runCmd(t, "clean", filepath.Join(home, "survey.csv"),
		"--pipeline-config", rc,
		"--export", filepath.Join(home, "out", "cleaned.csv"),
		"--report", filepath.Join(home, "out", "report.md"),
		"--plots", filepath.Join(home, "out", "plots"),
		"--metrics-file", filepath.Join(home, "metrics.prom"))
	require.NoError(t, err)

	assert.Contains(t, out, "Imputed missing values using median method for 5 columns")
	assert.Contains(t, out, "weighted")
	assert.Contains(t, out, "✓ Wrote cleaned data to")

	cleaned, err := os.ReadFile(filepath.Join(home, "out", "cleaned.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(cleaned), "id,age,income,education,weight\n"))

	md, err := os.ReadFile(filepath.Join(home, "out", "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Statistical Estimates")

	_, err = os.Stat(filepath.Join(home, "out", "plots", "correlation.svg"))
	assert.NoError(t, err)

	prom, err := os.ReadFile(filepath.Join(home, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "asdp_sessions_total")
}

func TestCleanRejectsUnknownMethod(t *testing.T) {
	home := setup(t)
	_, err := runCmd(t, "clean", filepath.Join(home, "survey.csv"), "--impute", "magic")
	assert.ErrorIs(t, err, apperrors.ErrInvalidMethod)
}

func TestCleanBatchNamesCollidingInputs(t *testing.T) {
	home := setup(t)
	for _, d := range []string{"d1", "d2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(home, d), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(home, d, "survey.csv"), []byte(surveyCSV), 0o644))
	}
	outDir := filepath.Join(home, "results")

	_, err := runCmd(t, "clean-batch", filepath.Join(home, "d*", "survey.csv"),
		"--out", outDir, "--impute", "mean", "--weights", "weight", "--quiet")
	require.NoError(t, err)

	for _, name := range []string{"survey.result.json", "survey__2.result.json"} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		var res struct {
			Session        string `json:"session"`
			WeightsApplied bool   `json:"weights_applied"`
		}
		require.NoError(t, json.Unmarshal(b, &res))
		assert.NotEmpty(t, res.Session)
		assert.True(t, res.WeightsApplied)
	}
}

func TestCleanBatchReportsFailures(t *testing.T) {
	home := setup(t)
	bad := filepath.Join(home, "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))

	_, err := runCmd(t, "clean-batch", filepath.Join(home, "survey.csv"), bad,
		"--out", filepath.Join(home, "results"), "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 inputs failed")
	_, statErr := os.Stat(filepath.Join(home, "results", "survey.result.json"))
	assert.NoError(t, statErr)
}

func TestResultNames(t *testing.T) {
	got := resultNames([]string{"a/x.csv", "b/x.xlsx", "c/y.csv", "d/x.tsv"})
	assert.Equal(t, []string{"x.result.json", "x__2.result.json", "y.result.json", "x__3.result.json"}, got)
}

func TestOptionsJSON(t *testing.T) {
	setup(t)
	out, err := runCmd(t, "options", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"imputation_methods"`)
	assert.Contains(t, out, `"isolation_forest"`)
	assert.Contains(t, out, `"max_file_size_mb": 16`)
}

func TestConfigSetAndShow(t *testing.T) {
	home := setup(t)
	_, err := runCmd(t, "config", "set", "knn_neighbors", "7")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, ".asdp", "config.yaml"))
	require.NoError(t, err)

	_, err = runCmd(t, "config", "set", "knn_neighbors", "seven")
	assert.Error(t, err)
	_, err = runCmd(t, "config", "set", "winsorize_percentile", "80")
	assert.Error(t, err)
	_, err = runCmd(t, "config", "set", "colour", "blue")
	assert.Error(t, err)

	loadConfig()
	var out bytes.Buffer
	configShowCmd.SetOut(&out)
	defer configShowCmd.SetOut(nil)
	require.NoError(t, configShowCmd.RunE(configShowCmd, nil))
	assert.Contains(t, out.String(), "knn_neighbors: 7")
	assert.Contains(t, out.String(), "z_critical: 1.96")
}

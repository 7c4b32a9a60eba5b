package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/KaramelBytes/asdp-cli/internal/pipeline"
	"github.com/KaramelBytes/asdp-cli/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	cbOutDir   string
	cbJobs     int
	cbQuiet    bool
	cbFailFast bool
)

var cleanBatchCmd = &cobra.Command{
	Use:   "clean-batch <files...>",
	Short: "Clean many datasets concurrently, one session per file",
	Long: `Runs an independent cleaning session for every input (globs are expanded) and writes
one <name>.result.json per input into --out. Stage flags are shared with 'clean'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		rc, err := runConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := rc.Validate(); err != nil {
			return err
		}
		m, err := newMetrics()
		if err != nil {
			return err
		}
		defer flushMetrics(m)

		outDir := outputPath(cbOutDir)
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		logger := newLogger()
		s := settings()
		s.Load.Sheet = clSheet
		names := resultNames(files)
		out := cmd.OutOrStdout()

		var (
			mu     sync.Mutex
			failed []string
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		jobs := cbJobs
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}
		g.SetLimit(jobs)
		for i, path := range files {
			g.Go(func() error {
				p := pipeline.New(s, logger, m)
				res, err := p.Run(ctx, path, rc)
				if err != nil {
					mu.Lock()
					failed = append(failed, fmt.Sprintf("%s: %v", path, err))
					mu.Unlock()
					if cbFailFast {
						return fmt.Errorf("%s: %w", path, err)
					}
					return nil
				}
				b, err := utils.IndentJSON(res)
				if err != nil {
					return err
				}
				dest := filepath.Join(outDir, names[i])
				if err := utils.WriteOutput(dest, b, 0o644); err != nil {
					return err
				}
				if !cbQuiet {
					mu.Lock()
					fmt.Fprintf(out, "✓ %s → %s (session %s)\n", path, dest, res.Session)
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if len(failed) > 0 {
			sort.Strings(failed)
			return fmt.Errorf("%d of %d inputs failed:\n  %s", len(failed), len(files), strings.Join(failed, "\n  "))
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// resultNames derives one output file name per input. Inputs sharing a base name get
// numbered suffixes in input order.
func resultNames(files []string) []string {
	names := make([]string, len(files))
	used := map[string]int{}
	for i, path := range files {
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		used[stem]++
		if n := used[stem]; n > 1 {
			stem = fmt.Sprintf("%s__%d", stem, n)
		}
		names[i] = stem + ".result.json"
	}
	return names
}

func init() {
	rootCmd.AddCommand(cleanBatchCmd)
	f := cleanBatchCmd.Flags()
	f.StringVarP(&cbOutDir, "out", "o", "asdp-results", "directory for result JSON files")
	f.IntVarP(&cbJobs, "jobs", "j", 0, "concurrent sessions (default GOMAXPROCS)")
	f.BoolVar(&cbQuiet, "quiet", false, "suppress per-file progress")
	f.BoolVar(&cbFailFast, "fail-fast", false, "stop at the first failing input")
	// stage flags shared with clean
	f.AddFlagSet(cleanStageFlags())
}

package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"myonorm/internal/activation"
	"myonorm/internal/config"
	"myonorm/internal/store"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		export     bool
		exportDir  string
		noStable   bool
		noStore    bool
	)

	cmd := &cobra.Command{
		Use:   "process <session-dir>",
		Short: "Calibrate a session and normalize every recording against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			p, err := newPipeline(cfg, logger, !noStable)
			if err != nil {
				return err
			}
			run, err := p.process(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var runID string
			if !noStore {
				err := ctx.withStore(func(s *store.Store) error {
					var persistErr error
					runID, persistErr = p.persist(cmd.Context(), s, run)
					return persistErr
				})
				if err != nil {
					return err
				}
			}

			var exported []string
			if target := strings.TrimSpace(exportDir); export || target != "" {
				if target == "" {
					target = cfg.Paths.ExportDir
					if runID != "" {
						target = filepath.Join(target, runID)
					}
				}
				if target, err = config.ExpandPath(target); err != nil {
					return err
				}
				if exported, err = exportActivations(target, run); err != nil {
					return err
				}
			}

			if err := p.finish(); err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, processJSON(runID, run, exported))
			}
			renderProcess(cmd, runID, run, exported)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")
	cmd.Flags().BoolVar(&export, "export", false, "Write normalized activations as npz files under paths.export_dir")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "Write normalized activations as npz files to this directory")
	cmd.Flags().BoolVar(&noStable, "no-stable-window", false, "Skip the minimum stable window search")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record the run in the results database")
	return cmd
}

func renderProcess(cmd *cobra.Command, runID string, run *sessionRun, exported []string) {
	out := cmd.OutOrStdout()
	if runID != "" {
		fmt.Fprintf(out, "Run %s\n", runID)
	}
	fmt.Fprintf(out, "Session %s (%d files, %d failures)\n", run.Session.Dir, run.Result.Files, len(run.Result.Failures))
	fmt.Fprintln(out, renderProfile(run.Profile))

	summaries := run.Result.Summaries()
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		stable := "none"
		if s.StableWindows > 0 {
			stable = fmt.Sprintf("%d (max %.3fs)", s.StableWindows, s.MaxStableSeconds)
		}
		rows = append(rows, []string{
			exerciseLabel(s.Exercise),
			s.ChannelName,
			strconv.Itoa(s.Repetitions),
			formatFloat(s.Mean, 4),
			formatFloat(s.Std, 4),
			formatFloat(s.CV, 3),
			stable,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Exercise", "Channel", "Reps", "Mean", "Std", "CV", "Stable"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))

	if len(run.Result.Failures) > 0 {
		fmt.Fprintln(out, renderFailures(run.Result.Failures))
	}
	for _, path := range exported {
		fmt.Fprintf(out, "Exported %s\n", path)
	}
}

func renderFailures(failures []activation.Failure) string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Source, channelText(f.Channel), f.Kind(), f.Err.Error()})
	}
	return renderTable([]string{"Source", "Ch", "Kind", "Error"}, rows, []columnAlignment{alignLeft, alignRight})
}

func channelText(ch int) string {
	if ch == activation.FileLevel {
		return "-"
	}
	return strconv.Itoa(ch)
}

type summaryJSON struct {
	Exercise         string  `json:"exercise"`
	Channel          int     `json:"channel"`
	ChannelName      string  `json:"channel_name"`
	Repetitions      int     `json:"repetitions"`
	Mean             float64 `json:"mean"`
	Std              float64 `json:"std"`
	CV               float64 `json:"cv"`
	StableWindows    int     `json:"stable_windows"`
	MaxStableSeconds float64 `json:"max_stable_seconds"`
}

type failureJSON struct {
	Source  string `json:"source"`
	Channel int    `json:"channel"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}

type processJSONView struct {
	RunID     string          `json:"run_id,omitempty"`
	Session   string          `json:"session"`
	Files     int             `json:"files"`
	Profile   profileJSONView `json:"profile"`
	Summaries []summaryJSON   `json:"summaries"`
	Failures  []failureJSON   `json:"failures"`
	Exported  []string        `json:"exported,omitempty"`
}

func processJSON(runID string, run *sessionRun, exported []string) processJSONView {
	view := processJSONView{
		RunID:     runID,
		Session:   run.Session.Dir,
		Files:     run.Result.Files,
		Profile:   profileJSON(run.Profile),
		Summaries: []summaryJSON{},
		Failures:  []failureJSON{},
		Exported:  exported,
	}
	for _, s := range run.Result.Summaries() {
		view.Summaries = append(view.Summaries, summaryJSON{
			Exercise:         s.Exercise,
			Channel:          s.Channel,
			ChannelName:      s.ChannelName,
			Repetitions:      s.Repetitions,
			Mean:             s.Mean,
			Std:              s.Std,
			CV:               s.CV,
			StableWindows:    s.StableWindows,
			MaxStableSeconds: s.MaxStableSeconds,
		})
	}
	for _, f := range run.Result.Failures {
		view.Failures = append(view.Failures, failureJSON{Source: f.Source, Channel: f.Channel, Kind: f.Kind(), Error: f.Err.Error()})
	}
	return view
}

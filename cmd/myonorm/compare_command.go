package main

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"myonorm/internal/activation"
)

// agreementRow is one exercise's repetition agreement. Pairs counts the
// repetition pairs whose vectors are finite.
type agreementRow struct {
	Session     string   `json:"session,omitempty"`
	Participant string   `json:"participant"`
	Exercise    string   `json:"exercise"`
	Sessions    int      `json:"sessions"`
	Repetitions int      `json:"repetitions"`
	Pairs       int      `json:"pairs"`
	Pearson     *float64 `json:"pearson"`
	Cosine      *float64 `json:"cosine"`
	ICC         *float64 `json:"icc"`
}

// compareView holds the pooled rows, one per exercise over every session,
// and the per-session breakdown.
type compareView struct {
	Exercises []agreementRow `json:"exercises"`
	Sessions  []agreementRow `json:"sessions"`
}

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "compare <session-dir>...",
		Short: "Measure repetition agreement of each exercise across sessions",
		Long: "Processes every session and reports, per exercise, the mean pairwise Pearson\n" +
			"correlation and cosine similarity of the per-repetition activation vectors\n" +
			"(one entry per channel) together with ICC(2,1) treating repetitions as raters.\n" +
			"Repetitions of the same exercise are pooled over all sessions; a per-session\n" +
			"breakdown follows.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			p, err := newPipeline(cfg, logger, false)
			if err != nil {
				return err
			}

			runs := make([]*sessionRun, 0, len(args))
			for _, dir := range args {
				run, err := p.process(cmd.Context(), dir)
				if err != nil {
					return fmt.Errorf("%s: %w", dir, err)
				}
				runs = append(runs, run)
			}
			if err := p.finish(); err != nil {
				return err
			}

			view := compareView{Exercises: pooledAgreementRows(runs), Sessions: []agreementRow{}}
			for _, run := range runs {
				view.Sessions = append(view.Sessions, agreementRows(run)...)
			}
			if jsonOutput {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "All sessions")
			fmt.Fprintln(out, renderAgreement(view.Exercises, "Sessions", func(r agreementRow) string {
				return strconv.Itoa(r.Sessions)
			}))
			fmt.Fprintln(out, "\nPer session")
			fmt.Fprintln(out, renderAgreement(view.Sessions, "Participant", func(r agreementRow) string {
				return r.Participant
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func renderAgreement(rows []agreementRow, firstHeader string, first func(agreementRow) string) string {
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			first(r),
			exerciseLabel(r.Exercise),
			strconv.Itoa(r.Repetitions),
			optionalFloat(r.Pearson),
			optionalFloat(r.Cosine),
			optionalFloat(r.ICC),
		})
	}
	return renderTable(
		[]string{firstHeader, "Exercise", "Reps", "Pearson", "Cosine", "ICC(2,1)"},
		table,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}

// agreementRows reports each exercise of one session on its own.
func agreementRows(run *sessionRun) []agreementRow {
	var rows []agreementRow
	for _, exercise := range run.Result.Series.Exercises() {
		row := agreementFor(exercise, run.Result.RepetitionVectors(exercise))
		row.Session = run.Session.Dir
		row.Participant = run.Session.Participant()
		row.Sessions = 1
		rows = append(rows, row)
	}
	return rows
}

// pooledAgreementRows gathers every session's repetition vectors per
// exercise, so raters are (session, repetition) pairs, and scores each
// exercise once. Exercises keep their first-seen order.
func pooledAgreementRows(runs []*sessionRun) []agreementRow {
	type pool struct {
		vectors      [][]float64
		sessions     int
		participants []string
	}
	var order []string
	pools := make(map[string]*pool)
	for _, run := range runs {
		for _, exercise := range run.Result.Series.Exercises() {
			pl, ok := pools[exercise]
			if !ok {
				pl = &pool{}
				pools[exercise] = pl
				order = append(order, exercise)
			}
			pl.vectors = append(pl.vectors, run.Result.RepetitionVectors(exercise)...)
			pl.sessions++
			if participant := run.Session.Participant(); !slices.Contains(pl.participants, participant) {
				pl.participants = append(pl.participants, participant)
			}
		}
	}
	rows := make([]agreementRow, 0, len(order))
	for _, exercise := range order {
		pl := pools[exercise]
		row := agreementFor(exercise, pl.vectors)
		row.Participant = strings.Join(pl.participants, ",")
		row.Sessions = pl.sessions
		rows = append(rows, row)
	}
	return rows
}

func agreementFor(exercise string, vectors [][]float64) agreementRow {
	cosine := activation.MeanCosine(vectors)
	row := agreementRow{
		Exercise:    exercise,
		Repetitions: len(vectors),
		Pairs:       cosine.Pairs,
		Pearson:     finiteOrNil(activation.MeanPearson(vectors).Value),
		Cosine:      finiteOrNil(cosine.Value),
	}
	complete := make([][]float64, 0, len(vectors))
	for _, v := range vectors {
		if allFinite(v) {
			complete = append(complete, v)
		}
	}
	if icc, err := activation.ICC2(complete); err == nil {
		row.ICC = finiteOrNil(icc)
	}
	return row
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func optionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v, 3)
}

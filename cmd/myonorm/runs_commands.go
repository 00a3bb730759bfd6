package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"myonorm/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded processing runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsDeleteCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				runs, err := s.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.StartedAt.Local().Format(time.DateTime),
						run.Participant,
						run.Policy,
						strconv.Itoa(run.Files),
						strconv.Itoa(run.Failures),
						run.Duration().Round(time.Millisecond).String(),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Started", "Participant", "Policy", "Files", "Failures", "Took"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the profile, activations, and failures of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				run, err := s.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				profiles, err := s.RunProfiles(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				activations, err := s.RunActivations(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				failures, err := s.RunFailures(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s\n", run.ID)
				fmt.Fprintf(out, "Session: %s\n", run.SessionDir)
				fmt.Fprintf(out, "Participant: %s\n", run.Participant)
				fmt.Fprintf(out, "Policy: %s, reduction: %s, %g Hz\n", run.Policy, run.Reducer, run.SampleRate)
				fmt.Fprintf(out, "Started: %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), run.Duration().Round(time.Millisecond))

				prows := make([][]string, 0, len(profiles))
				for _, p := range profiles {
					prows = append(prows, []string{
						strconv.Itoa(p.Channel), p.Name, formatFloat(p.Value, 6),
						exerciseLabel(p.Exercise), strconv.Itoa(p.Repetition), p.Source,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Ch", "Name", "MVC", "Exercise", "Rep", "Source"},
					prows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				))

				arows := make([][]string, 0, len(activations))
				for _, a := range activations {
					arows = append(arows, []string{
						exerciseLabel(a.Exercise), strconv.Itoa(a.Channel), strconv.Itoa(a.Repetition),
						formatFloat(a.Mean, 4), formatSeconds(a.StableSeconds),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Exercise", "Ch", "Rep", "Mean", "Stable"},
					arows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
				))

				if len(failures) > 0 {
					frows := make([][]string, 0, len(failures))
					for _, f := range failures {
						frows = append(frows, []string{f.Source, channelText(f.Channel), f.Kind, f.Message})
					}
					fmt.Fprintln(out, renderTable([]string{"Source", "Ch", "Kind", "Error"}, frows, []columnAlignment{alignLeft, alignRight}))
				}
				return nil
			})
		},
	}
}

func newRunsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				run, err := s.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				if _, err := s.DeleteRun(cmd.Context(), run.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.ID)
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"myonorm/internal/emgerr"
	"myonorm/internal/mvc"
)

func newCalibrateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "calibrate <session-dir>",
		Short: "Compute the per-channel MVC profile of a session",
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
			p, err := newPipeline(cfg, logger, false)
			if err != nil {
				return err
			}
			session, err := p.discover(args[0])
			if err != nil {
				return err
			}
			profile, err := p.calibrate(cmd.Context(), session)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, profileJSON(profile))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Policy: %s, reduction: %s\n", profile.Policy, profile.Reducer)
			fmt.Fprintln(out, renderProfile(profile))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

type channelProfileJSON struct {
	Channel    int                     `json:"channel"`
	Name       string                  `json:"name"`
	Value      float64                 `json:"value"`
	Source     string                  `json:"source"`
	Exercise   string                  `json:"exercise"`
	Repetition int                     `json:"repetition"`
	Candidates int                     `json:"candidates"`
	Excluded   []excludedCandidateJSON `json:"excluded,omitempty"`
}

type excludedCandidateJSON struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

type profileJSONView struct {
	Policy   string               `json:"policy"`
	Reducer  string               `json:"reducer"`
	Channels []channelProfileJSON `json:"channels"`
}

func profileJSON(profile *mvc.Profile) profileJSONView {
	view := profileJSONView{Policy: profile.Policy, Reducer: profile.Reducer.String()}
	for _, ch := range profile.Channels {
		entry := channelProfileJSON{
			Channel:    ch.Channel,
			Name:       ch.Name,
			Value:      ch.Value,
			Source:     ch.Source,
			Exercise:   ch.Exercise,
			Repetition: ch.Repetition,
			Candidates: len(ch.Candidates),
		}
		for _, ex := range ch.Excluded() {
			entry.Excluded = append(entry.Excluded, excludedCandidateJSON{
				Source: ex.Source,
				Kind:   emgerr.Kind(ex.Err),
				Error:  ex.Err.Error(),
			})
		}
		view.Channels = append(view.Channels, entry)
	}
	return view
}

func renderProfile(profile *mvc.Profile) string {
	rows := make([][]string, 0, len(profile.Channels))
	for _, ch := range profile.Channels {
		rows = append(rows, []string{
			strconv.Itoa(ch.Channel),
			ch.Name,
			formatFloat(ch.Value, 6),
			exerciseLabel(ch.Exercise),
			strconv.Itoa(ch.Repetition),
			ch.Source,
		})
	}
	var b strings.Builder
	b.WriteString(renderTable(
		[]string{"Ch", "Name", "MVC", "Exercise", "Rep", "Source"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	))
	for _, ch := range profile.Channels {
		for _, ex := range ch.Excluded() {
			fmt.Fprintf(&b, "\nExcluded from channel %d: %s (%s)", ch.Channel, ex.Source, emgerr.Kind(ex.Err))
		}
	}
	return b.String()
}

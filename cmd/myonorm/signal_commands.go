package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"myonorm/internal/activation"
	"myonorm/internal/config"
	"myonorm/internal/envelope"
	"myonorm/internal/filter"
	"myonorm/internal/recording"
	"myonorm/internal/spectrum"
)

func loadChannel(cfg *config.Config, path string, channel int) (*recording.Recording, []float64, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, nil, err
	}
	rec, err := recording.ReadFile(expanded, cfg.Pipeline.SamplingFrequency)
	if err != nil {
		return nil, nil, err
	}
	signal, err := rec.Channel(channel)
	if err != nil {
		return nil, nil, err
	}
	return rec, signal, nil
}

func newWindowCommand(ctx *commandContext) *cobra.Command {
	var (
		channel   int
		step      int
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:   "window <recording>",
		Short: "Find the minimum stable window of one raw channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("step") {
				step = cfg.Aggregation.StableWindowStep
			}
			if !cmd.Flags().Changed("tolerance") {
				tolerance = cfg.Aggregation.StableWindowTolerance
			}
			rec, signal, err := loadChannel(cfg, args[0], channel)
			if err != nil {
				return err
			}
			window, found, err := activation.StableWindow(signal, rec.SampleRate(), step, tolerance)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintf(out, "%s channel %d: no stable window (step %d, tolerance %g)\n", rec.Name(), channel, step, tolerance)
				return nil
			}
			fmt.Fprintf(out, "%s channel %d: stable after %d samples (%.3fs)\n", rec.Name(), channel, window.Samples, window.Seconds)
			return nil
		},
	}
	cmd.Flags().IntVar(&channel, "channel", 0, "Channel index")
	cmd.Flags().IntVar(&step, "step", 0, "Window growth step in samples (default from config)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Relative tolerance (default from config)")
	return cmd
}

func newSpectrumCommand(ctx *commandContext) *cobra.Command {
	var (
		channel   int
		hann      bool
		jsonOut   bool
		rmsWindow float64
	)

	cmd := &cobra.Command{
		Use:   "spectrum <recording>",
		Short: "Report the amplitude spectrum statistics of one raw channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rec, signal, err := loadChannel(cfg, args[0], channel)
			if err != nil {
				return err
			}
			s, err := spectrum.Compute(signal, rec.SampleRate(), spectrum.Options{Hann: hann, Detrend: true})
			if err != nil {
				return err
			}
			rmsSamples := int(rmsWindow * rec.SampleRate())
			rms, err := envelope.RMS(signal, rmsSamples)
			if err != nil {
				return err
			}
			dominant, magnitude := s.Dominant()
			low, high := cfg.Pipeline.BandpassLow, cfg.Pipeline.BandpassHigh
			report := struct {
				Source         string  `json:"source"`
				Channel        int     `json:"channel"`
				Resolution     float64 `json:"resolution_hz"`
				Dominant       float64 `json:"dominant_hz"`
				DominantMag    float64 `json:"dominant_magnitude"`
				Median         float64 `json:"median_hz"`
				Mean           float64 `json:"mean_hz"`
				InBandFraction float64 `json:"in_band_fraction"`
				PeakRMS        float64 `json:"peak_rms"`
			}{
				Source:         rec.Name(),
				Channel:        channel,
				Resolution:     s.Resolution(),
				Dominant:       dominant,
				DominantMag:    magnitude,
				Median:         s.MedianFrequency(),
				Mean:           s.MeanFrequency(),
				InBandFraction: s.PowerFraction(low, high),
				PeakRMS:        floats.Max(rms),
			}
			if jsonOut {
				return writeJSON(cmd, report)
			}
			rows := [][]string{
				{"Resolution", formatFloat(report.Resolution, 4) + " Hz"},
				{"Dominant", fmt.Sprintf("%s Hz (%s)", formatFloat(report.Dominant, 2), formatFloat(report.DominantMag, 4))},
				{"Median frequency", formatFloat(report.Median, 2) + " Hz"},
				{"Mean frequency", formatFloat(report.Mean, 2) + " Hz"},
				{fmt.Sprintf("Power in %g-%g Hz", low, high), formatFloat(100*report.InBandFraction, 1) + "%"},
				{fmt.Sprintf("Peak RMS (%gs)", rmsWindow), formatFloat(report.PeakRMS, 4)},
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s channel %d\n", rec.Name(), channel)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().IntVar(&channel, "channel", 0, "Channel index")
	cmd.Flags().BoolVar(&hann, "hann", false, "Apply a Hann window before the transform")
	cmd.Flags().Float64Var(&rmsWindow, "rms-window", 0.1, "Moving RMS window in seconds")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

type filterStage struct {
	label string
	spec  filter.Spec
}

func newFiltersCommand(ctx *commandContext) *cobra.Command {
	var frequencies []float64

	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show the designed filter sections and their magnitude response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			chain := cfg.PipelineConfig()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sampling frequency %g Hz, trim %gs\n", chain.SampleRate, chain.TrimSeconds)

			stages := []filterStage{{"Band-pass", chain.Bandpass}}
			if chain.NotchEnabled() {
				stages = append(stages, filterStage{"Notch", chain.Notch})
			}
			stages = append(stages, filterStage{"Low-pass", chain.Lowpass})

			for _, st := range stages {
				cascade, err := st.spec.Design(chain.SampleRate)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s: %s\n", st.label, cascade.Spec())
				rows := make([][]string, 0, len(cascade.Sections()))
				for i, sec := range cascade.Sections() {
					rows = append(rows, []string{
						strconv.Itoa(i),
						fmt.Sprintf("%.6g %.6g %.6g", sec.B[0], sec.B[1], sec.B[2]),
						fmt.Sprintf("%.6g %.6g %.6g", sec.A[0], sec.A[1], sec.A[2]),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Section", "b", "a"}, rows, []columnAlignment{alignRight}))

				resp := make([][]string, 0, len(frequencies))
				for _, f := range frequencies {
					resp = append(resp, []string{formatFloat(f, 1), formatFloat(cascade.Response(f), 4)})
				}
				fmt.Fprintln(out, renderTable([]string{"Hz", "|H|"}, resp, []columnAlignment{alignRight, alignRight}))
			}
			return nil
		},
	}
	cmd.Flags().Float64SliceVar(&frequencies, "freq", []float64{1, 5, 20, 50, 100, 450}, "Frequencies at which to evaluate the response")
	return cmd
}

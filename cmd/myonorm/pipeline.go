package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"myonorm/internal/activation"
	"myonorm/internal/config"
	"myonorm/internal/envelope"
	"myonorm/internal/logging"
	"myonorm/internal/metrics"
	"myonorm/internal/mvc"
	"myonorm/internal/recording"
	"myonorm/internal/store"
)

// pipeline bundles the components built from one configuration.
type pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	extractor  *envelope.Extractor
	calibrator *mvc.Calibrator
	aggregator *activation.Aggregator
	metrics    *metrics.Recorder
}

// sessionRun is the outcome of calibrating and aggregating one directory.
type sessionRun struct {
	Session  *recording.Session
	Profile  *mvc.Profile
	Result   *activation.Result
	Started  time.Time
	Finished time.Time
}

func newPipeline(cfg *config.Config, logger *slog.Logger, stable bool) (*pipeline, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	extractor, err := envelope.New(cfg.PipelineConfig())
	if err != nil {
		return nil, err
	}
	policy, err := mvc.PolicyByName(cfg.Calibration.Policy, cfg.Calibration.PoseNames)
	if err != nil {
		return nil, err
	}
	calibrator, err := mvc.New(extractor, mvc.Options{
		Policy: policy,
		Reducer: mvc.Reducer{
			Kind:          mvc.Reduction(cfg.Calibration.Reduction),
			WindowSeconds: cfg.Calibration.WindowSeconds,
		},
		Workers: cfg.Aggregation.Workers,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	opts := activation.Options{Workers: cfg.Aggregation.Workers, Logger: logger}
	if stable {
		opts.Stable = &activation.StableOptions{
			Step:      cfg.Aggregation.StableWindowStep,
			Tolerance: cfg.Aggregation.StableWindowTolerance,
			Source:    activation.Source(cfg.Aggregation.StableWindowSource),
		}
	}
	aggregator, err := activation.New(extractor, opts)
	if err != nil {
		return nil, err
	}
	return &pipeline{
		cfg:        cfg,
		logger:     logger,
		extractor:  extractor,
		calibrator: calibrator,
		aggregator: aggregator,
		metrics:    metrics.New(),
	}, nil
}

func (p *pipeline) discover(dir string) (*recording.Session, error) {
	path, err := config.ExpandPath(dir)
	if err != nil {
		return nil, err
	}
	return recording.DiscoverSession(path, p.cfg.Pipeline.SamplingFrequency)
}

func (p *pipeline) calibrate(ctx context.Context, session *recording.Session) (*mvc.Profile, error) {
	started := time.Now()
	profile, err := p.calibrator.Calibrate(ctx, session)
	p.metrics.ObserveStage(metrics.StageCalibrate, time.Since(started))
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveProfile(profile)
	return profile, nil
}

// process calibrates the whole session before any recording is normalized.
func (p *pipeline) process(ctx context.Context, dir string) (*sessionRun, error) {
	session, err := p.discover(dir)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithSession(ctx, session.Dir)
	run := &sessionRun{Session: session, Started: time.Now()}

	if run.Profile, err = p.calibrate(ctx, session); err != nil {
		return nil, err
	}

	started := time.Now()
	run.Result, err = p.aggregator.Run(ctx, session, run.Profile)
	p.metrics.ObserveStage(metrics.StageAggregate, time.Since(started))
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveResult(run.Result)
	run.Finished = time.Now()
	return run, nil
}

// finish writes the metrics textfile when one is configured.
func (p *pipeline) finish() error {
	p.metrics.MarkFinished(time.Now())
	if strings.TrimSpace(p.cfg.Metrics.Textfile) == "" {
		return nil
	}
	return p.metrics.WriteTextfile(p.cfg.Metrics.Textfile)
}

func (p *pipeline) persist(ctx context.Context, s *store.Store, run *sessionRun) (string, error) {
	started := time.Now()
	id, err := s.RecordRun(ctx, buildRunRecord(run))
	p.metrics.ObserveStage(metrics.StagePersist, time.Since(started))
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	p.logger.Info("run recorded", logging.String(logging.FieldRunID, id))
	return id, nil
}

func buildRunRecord(run *sessionRun) *store.RunRecord {
	rec := &store.RunRecord{
		Run: store.Run{
			SessionDir:  run.Session.Dir,
			Participant: run.Session.Participant(),
			Policy:      run.Profile.Policy,
			Reducer:     run.Profile.Reducer.String(),
			SampleRate:  run.Session.SampleRate,
			Files:       run.Result.Files,
			StartedAt:   run.Started,
			FinishedAt:  run.Finished,
		},
	}
	for _, ch := range run.Profile.Channels {
		rec.Profiles = append(rec.Profiles, store.ProfileEntry{
			Channel:    ch.Channel,
			Name:       ch.Name,
			Value:      ch.Value,
			Source:     ch.Source,
			Exercise:   ch.Exercise,
			Repetition: ch.Repetition,
		})
	}
	for _, key := range run.Result.Series.Keys() {
		for _, rep := range run.Result.Series.Repetitions(key) {
			entry := store.ActivationEntry{
				Exercise:   key.Exercise,
				Channel:    key.Channel,
				Repetition: rep.Index,
				Source:     rep.Source,
				Mean:       rep.Mean,
			}
			if rep.StableWindow != nil {
				seconds := rep.StableWindow.Seconds
				entry.StableSeconds = &seconds
			}
			rec.Activations = append(rec.Activations, entry)
		}
	}
	for _, f := range run.Result.Failures {
		rec.Failures = append(rec.Failures, store.FailureEntry{
			Source:  f.Source,
			Channel: f.Channel,
			Kind:    f.Kind(),
			Message: f.Err.Error(),
		})
	}
	return rec
}

// exportActivations writes one npz per recording, named like its source,
// with a row per channel. Channels that failed are filled with NaN so rows
// keep equal length.
func exportActivations(dir string, run *sessionRun) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	channels := len(run.Session.Channels)
	bySource := make(map[string][][]float64)
	var order []string
	for _, key := range run.Result.Series.Keys() {
		for _, rep := range run.Result.Series.Repetitions(key) {
			rows, ok := bySource[rep.Source]
			if !ok {
				rows = make([][]float64, channels)
				order = append(order, rep.Source)
			}
			rows[key.Channel] = rep.Activation
			bySource[rep.Source] = rows
		}
	}

	written := make([]string, 0, len(order))
	for _, source := range order {
		rows := bySource[source]
		length := 0
		for _, row := range rows {
			length = max(length, len(row))
		}
		for ch, row := range rows {
			if row == nil {
				filled := make([]float64, length)
				for i := range filled {
					filled[i] = math.NaN()
				}
				rows[ch] = filled
			}
		}
		name := strings.TrimSuffix(source, filepath.Ext(source)) + recording.ExtNPZ
		path := filepath.Join(dir, name)
		if err := recording.WriteNPZ(path, rows); err != nil {
			return written, fmt.Errorf("export %s: %w", source, err)
		}
		written = append(written, path)
	}
	return written, nil
}

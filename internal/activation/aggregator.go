package activation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"myonorm/internal/emgerr"
	"myonorm/internal/envelope"
	"myonorm/internal/logging"
	"myonorm/internal/mvc"
	"myonorm/internal/normalize"
	"myonorm/internal/recording"
)

// FileLevel is the Failure.Channel value for failures that affect a whole file.
const FileLevel = -1

// Failure records one (file, channel) that could not be processed.
type Failure struct {
	Source  string
	Channel int
	Err     error
}

// Kind is the taxonomy label of the failure.
func (f Failure) Kind() string { return emgerr.Kind(f.Err) }

func (f Failure) Error() string {
	if f.Channel == FileLevel {
		return fmt.Sprintf("%s: %v", f.Source, f.Err)
	}
	return fmt.Sprintf("%s channel %d: %v", f.Source, f.Channel, f.Err)
}

// Result is the output of one aggregation run.
type Result struct {
	Channels recording.ChannelSet
	Series   *Series
	Failures []Failure
	// Files is the number of recordings attempted, including rejected names.
	Files int
}

// Options configures an Aggregator.
type Options struct {
	Workers int
	// Stable enables the minimum stable window search when non-nil.
	Stable *StableOptions
	Logger *slog.Logger
}

// Aggregator runs extract and normalize over a whole session.
type Aggregator struct {
	extractor *envelope.Extractor
	workers   int
	stable    *StableOptions
	logger    *slog.Logger
}

// New validates opts. The extractor must be the one used for calibration.
func New(extractor *envelope.Extractor, opts Options) (*Aggregator, error) {
	if extractor == nil {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "activation", "configure", "envelope extractor is required", nil)
	}
	if opts.Stable != nil {
		if err := opts.Stable.validate(); err != nil {
			return nil, err
		}
		stable := *opts.Stable
		opts.Stable = &stable
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	return &Aggregator{
		extractor: extractor,
		workers:   opts.Workers,
		stable:    opts.Stable,
		logger:    logging.NewComponentLogger(opts.Logger, "activation"),
	}, nil
}

type slot struct {
	rep Repetition
	err error
}

// Run normalizes every channel of every recording against profile. The
// profile must be complete before Run is called; Run never recalibrates.
// Only cancellation and a profile that does not match the session are
// returned as errors; everything else lands in Result.Failures.
func (a *Aggregator) Run(ctx context.Context, session *recording.Session, profile *mvc.Profile) (*Result, error) {
	if session == nil {
		return nil, emgerr.Wrap(emgerr.ErrSelection, "activation", "run", "session is required", nil)
	}
	if profile == nil || len(profile.Channels) != len(session.Channels) {
		got := 0
		if profile != nil {
			got = len(profile.Channels)
		}
		return nil, emgerr.Wrap(emgerr.ErrSelection, "activation", "run",
			fmt.Sprintf("profile covers %d channels, session has %d", got, len(session.Channels)), nil)
	}
	logger := logging.WithContext(ctx, a.logger)
	started := time.Now()
	channels := len(session.Channels)

	recs := make([]*recording.Recording, len(session.Handles))
	loadErrs := make([]error, len(session.Handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range session.Handles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs[i], loadErrs[i] = session.Load(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slots := make([][]slot, len(session.Handles))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, rec := range recs {
		if rec == nil {
			continue
		}
		slots[i] = make([]slot, channels)
		for ch := range channels {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				rep, err := a.process(rec, ch, profile.Channels[ch].Value)
				slots[i][ch] = slot{rep: rep, err: err}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Channels: session.Channels,
		Series:   NewSeries(),
		Files:    len(session.Handles) + len(session.Rejected),
	}
	for _, rej := range session.Rejected {
		result.Failures = append(result.Failures, Failure{Source: rej.Name, Channel: FileLevel, Err: rej.Err})
	}
	for i, h := range session.Handles {
		if loadErrs[i] != nil {
			result.Failures = append(result.Failures, Failure{Source: h.Name, Channel: FileLevel, Err: loadErrs[i]})
			continue
		}
		for ch, s := range slots[i] {
			if s.err != nil {
				result.Failures = append(result.Failures, Failure{Source: h.Name, Channel: ch, Err: s.err})
				continue
			}
			result.Series.Add(Key{Exercise: h.Meta.Exercise, Channel: ch}, s.rep)
		}
	}

	for _, f := range result.Failures {
		logger.Warn("recording skipped",
			logging.String(logging.FieldFile, f.Source),
			logging.Int(logging.FieldChannel, f.Channel),
			logging.String("kind", f.Kind()),
			logging.Error(f.Err))
	}
	logger.Info("aggregation complete",
		logging.Int("files", result.Files),
		logging.Int("series", result.Series.Len()),
		logging.Int("failures", len(result.Failures)),
		logging.Duration("elapsed", time.Since(started)))
	return result, nil
}

func (a *Aggregator) process(rec *recording.Recording, channel int, reference float64) (Repetition, error) {
	raw, err := rec.Channel(channel)
	if err != nil {
		return Repetition{}, err
	}
	env, err := a.extractor.Extract(raw)
	if err != nil {
		return Repetition{}, err
	}
	act, err := normalize.Normalize(env, reference)
	if err != nil {
		return Repetition{}, err
	}
	rep := Repetition{
		Index:      rec.Metadata().Repetition,
		Source:     rec.Name(),
		Mean:       stat.Mean(act, nil),
		Activation: act,
	}
	if a.stable != nil {
		signal := raw
		if a.stable.Source == SourceActivation {
			signal = act
		}
		window, ok, err := StableWindow(signal, rec.SampleRate(), a.stable.Step, a.stable.Tolerance)
		if err != nil {
			return Repetition{}, err
		}
		if ok {
			rep.StableWindow = &window
		}
	}
	return rep, nil
}

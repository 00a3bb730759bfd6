package mvc

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"myonorm/internal/emgerr"
	"myonorm/internal/envelope"
	"myonorm/internal/logging"
	"myonorm/internal/recording"
)

// Options configures a Calibrator. Zero values select the automatic policy,
// the default reducer, and one worker per CPU.
type Options struct {
	Policy  Policy
	Reducer Reducer
	Workers int
	Logger  *slog.Logger
}

// Calibrator computes MVC profiles. It is safe for concurrent use.
type Calibrator struct {
	extractor *envelope.Extractor
	policy    Policy
	reducer   Reducer
	workers   int
	logger    *slog.Logger
}

// New validates opts against the extractor's sampling frequency.
func New(extractor *envelope.Extractor, opts Options) (*Calibrator, error) {
	if extractor == nil {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "mvc", "configure", "envelope extractor is required", nil)
	}
	if opts.Policy == nil {
		opts.Policy = Automatic{}
	}
	if opts.Reducer.Kind == "" {
		opts.Reducer = DefaultReducer()
	}
	if err := opts.Reducer.Validate(extractor.Config().SampleRate); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	return &Calibrator{
		extractor: extractor,
		policy:    opts.Policy,
		reducer:   opts.Reducer,
		workers:   opts.Workers,
		logger:    logging.NewComponentLogger(opts.Logger, "mvc"),
	}, nil
}

// Policy returns the candidate selection policy in use.
func (c *Calibrator) Policy() Policy { return c.policy }

// Reducer returns the envelope reduction in use.
func (c *Calibrator) Reducer() Reducer { return c.reducer }

// Score extracts the envelope of one raw channel and reduces it.
func (c *Calibrator) Score(signal []float64) (float64, error) {
	env, err := c.extractor.Extract(signal)
	if err != nil {
		return 0, err
	}
	return c.reducer.Reduce(env, c.extractor.Config().SampleRate)
}

type job struct {
	handle  int
	channel int
}

// Calibrate builds the Profile of session. Candidate envelopes are scored in
// parallel. Policies that exclude failed candidates record the failure on the
// candidate's Score and keep going; otherwise the first failure cancels the
// remaining work and is returned.
func (c *Calibrator) Calibrate(ctx context.Context, session *recording.Session) (*Profile, error) {
	if session == nil || len(session.Channels) == 0 {
		return nil, emgerr.Wrap(emgerr.ErrSelection, "mvc", "calibrate", "session has no channels", nil)
	}
	if session.SampleRate != c.extractor.Config().SampleRate {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "mvc", "calibrate",
			fmt.Sprintf("session sampled at %g Hz, extractor designed for %g Hz",
				session.SampleRate, c.extractor.Config().SampleRate), nil)
	}
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()

	candidates, err := c.policy.Candidates(session)
	if err != nil {
		return nil, err
	}

	scores := make([][]float64, len(session.Handles))
	errs := make([][]error, len(session.Handles))
	var jobs []job
	for ch, idxs := range candidates {
		for _, idx := range idxs {
			if scores[idx] == nil {
				scores[idx] = make([]float64, len(session.Channels))
				errs[idx] = make([]error, len(session.Channels))
			}
			jobs = append(jobs, job{handle: idx, channel: ch})
		}
	}

	exclude := c.policy.ExcludesFailed()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			value, err := c.scoreJob(session, j)
			if err != nil {
				if exclude {
					errs[j.handle][j.channel] = err
					return nil
				}
				return err
			}
			scores[j.handle][j.channel] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile := &Profile{Policy: c.policy.Name(), Reducer: c.reducer}
	for ch, idxs := range candidates {
		cp := ChannelProfile{Channel: ch, Name: session.Channels.Name(ch)}
		chosen := false
		var firstErr error
		for _, idx := range idxs {
			h := session.Handles[idx]
			score := Score{
				Source:     h.Name,
				Exercise:   h.Meta.Exercise,
				Repetition: h.Meta.Repetition,
				Value:      scores[idx][ch],
				Err:        errs[idx][ch],
			}
			cp.Candidates = append(cp.Candidates, score)
			if score.Err != nil {
				if firstErr == nil {
					firstErr = score.Err
				}
				logger.Warn("calibration candidate excluded",
					logging.Int(logging.FieldChannel, ch),
					logging.String(logging.FieldFile, score.Source),
					logging.Error(score.Err))
				continue
			}
			if !chosen || score.Value > cp.Value {
				chosen = true
				cp.Value = score.Value
				cp.Source = score.Source
				cp.Exercise = score.Exercise
				cp.Repetition = score.Repetition
			}
		}
		if !chosen {
			return nil, emgerr.Wrap(emgerr.ErrSelection, "mvc", "calibrate",
				fmt.Sprintf("no usable candidate for channel %d (%s)", ch, cp.Name), firstErr)
		}
		logger.Debug("channel calibrated",
			logging.Int(logging.FieldChannel, ch),
			logging.String("name", cp.Name),
			logging.String("source", cp.Source),
			logging.Float64("mvc", cp.Value),
			logging.Int("candidates", len(idxs)),
			logging.Int("excluded", len(cp.Excluded())))
		profile.Channels = append(profile.Channels, cp)
	}

	logger.Info("calibration complete",
		logging.String("policy", profile.Policy),
		logging.String("reduction", c.reducer.String()),
		logging.Int("channels", len(profile.Channels)),
		logging.Int("scored", len(jobs)),
		logging.Duration("elapsed", time.Since(started)))
	return profile, nil
}

func (c *Calibrator) scoreJob(session *recording.Session, j job) (float64, error) {
	name := session.Handles[j.handle].Name
	rec, err := session.Load(j.handle)
	if err != nil {
		return 0, fmt.Errorf("calibrate %s: %w", name, err)
	}
	signal, err := rec.Channel(j.channel)
	if err != nil {
		return 0, fmt.Errorf("calibrate %s: %w", name, err)
	}
	value, err := c.Score(signal)
	if err != nil {
		return 0, fmt.Errorf("calibrate %s channel %d: %w", name, j.channel, err)
	}
	return value, nil
}

package mvc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myonorm/internal/emgerr"
	"myonorm/internal/envelope"
	"myonorm/internal/mvc"
	"myonorm/internal/recording"
	ts "myonorm/internal/testsupport"
)

const (
	curl1  = "YT1_curl_14_03_2024_10_00_00_rep1.npz"
	curl2  = "YT1_curl_14_03_2024_10_01_00_rep2.npz"
	plank1 = "YT1_plank_14_03_2024_10_05_00_rep1.npz"
)

var twoChannels = recording.ChannelSet{"biceps", "triceps"}

func newCalibrator(t *testing.T, opts mvc.Options) *mvc.Calibrator {
	t.Helper()
	extractor, err := envelope.New(envelope.DefaultConfig(ts.SampleRate))
	require.NoError(t, err)
	opts.Workers = 2
	c, err := mvc.New(extractor, opts)
	require.NoError(t, err)
	return c
}

func TestMaxWindowMeanConstant(t *testing.T) {
	for _, c := range []float64{0, 0.1, 0.7, 1.0 / 3, 2.2, 1e-6} {
		for _, window := range []int{1, 10, 999, 1000, 4000} {
			got, err := mvc.MaxWindowMean(ts.Constant(c, 4000), window)
			require.NoError(t, err)
			assert.Equal(t, c, got, "level %v window %d", c, window)
		}
	}
}

func TestMaxWindowMeanPlateau(t *testing.T) {
	x := make([]float64, 100)
	for i := 40; i < 60; i++ {
		x[i] = 5
	}
	got, err := mvc.MaxWindowMean(x, 10)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got, 1e-12)
}

func TestMaxWindowMeanIncludesFinalWindow(t *testing.T) {
	got, err := mvc.MaxWindowMean([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, got, 1e-12)

	got, err = mvc.MaxWindowMean([]float64{4, 2, 6}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 1e-12)
}

func TestMaxWindowMeanErrors(t *testing.T) {
	_, err := mvc.MaxWindowMean([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, emgerr.ErrInsufficientData)
	_, err = mvc.MaxWindowMean([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, emgerr.ErrConfiguration)
}

func TestPeakValue(t *testing.T) {
	got, err := mvc.PeakValue([]float64{0.1, 3.5, -7, 2})
	require.NoError(t, err)
	assert.Equal(t, 3.5, got)
	_, err = mvc.PeakValue(nil)
	assert.ErrorIs(t, err, emgerr.ErrInsufficientData)
}

func TestReducer(t *testing.T) {
	r := mvc.DefaultReducer()
	assert.Equal(t, 1000, r.WindowSamples(2000))
	assert.Equal(t, "max_window_mean(0.5s)", r.String())

	assert.ErrorIs(t, mvc.Reducer{Kind: mvc.ReductionMaxWindowMean, WindowSeconds: 0.0001}.Validate(2000), emgerr.ErrConfiguration)
	assert.ErrorIs(t, mvc.Reducer{Kind: "median"}.Validate(2000), emgerr.ErrConfiguration)
	assert.NoError(t, mvc.Reducer{Kind: mvc.ReductionGlobalMax}.Validate(2000))

	got, err := mvc.Reducer{Kind: mvc.ReductionGlobalMax}.Reduce([]float64{1, 4, 2}, 2000)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)

	_, err = r.Reduce(ts.Constant(1, 999), 2000)
	assert.ErrorIs(t, err, emgerr.ErrInsufficientData)
}

func TestNewRejectsShortWindow(t *testing.T) {
	extractor, err := envelope.New(envelope.DefaultConfig(ts.SampleRate))
	require.NoError(t, err)
	_, err = mvc.New(extractor, mvc.Options{Reducer: mvc.Reducer{Kind: mvc.ReductionMaxWindowMean, WindowSeconds: 0.0001}})
	assert.ErrorIs(t, err, emgerr.ErrConfiguration)
	_, err = mvc.New(nil, mvc.Options{})
	assert.ErrorIs(t, err, emgerr.ErrConfiguration)
}

func TestAutomaticPicksStrongestPerChannel(t *testing.T) {
	a := ts.Recording(t, curl1, ts.Burst(3, 4), ts.Burst(1, 4))
	b := ts.Recording(t, plank1, ts.Burst(2, 4), ts.Burst(2, 4))
	session := ts.MemorySession(twoChannels, a, b)

	profile, err := newCalibrator(t, mvc.Options{}).Calibrate(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, profile.Channels, 2)
	assert.Equal(t, "automatic", profile.Policy)

	ch0 := profile.Channels[0]
	assert.Equal(t, "biceps", ch0.Name)
	assert.Equal(t, curl1, ch0.Source)
	assert.Equal(t, "curl", ch0.Exercise)
	assert.InDelta(t, 3.0, ch0.Value, 0.3)

	ch1 := profile.Channels[1]
	assert.Equal(t, plank1, ch1.Source)
	assert.Equal(t, "plank", ch1.Exercise)
	assert.InDelta(t, 2.0, ch1.Value, 0.2)

	require.Len(t, ch1.Candidates, 2)
	assert.Equal(t, curl1, ch1.Candidates[0].Source)
	assert.Equal(t, plank1, ch1.Candidates[1].Source)
	assert.Less(t, ch1.Candidates[0].Value, ch1.Candidates[1].Value)

	value, err := profile.Value(1)
	require.NoError(t, err)
	assert.Equal(t, ch1.Value, value)
	assert.Equal(t, []float64{ch0.Value, ch1.Value}, profile.Values())
}

func TestAutomaticTieKeepsEarliest(t *testing.T) {
	a := ts.Recording(t, curl1, ts.Burst(2, 4), ts.Burst(2, 4))
	b := ts.Recording(t, curl2, ts.Burst(2, 4), ts.Burst(2, 4))

	profile, err := newCalibrator(t, mvc.Options{}).Calibrate(context.Background(), ts.MemorySession(twoChannels, a, b))
	require.NoError(t, err)
	assert.Equal(t, curl1, profile.Channels[0].Source)
	assert.Equal(t, curl1, profile.Channels[1].Source)
}

func TestFixedUsesRepetitionOneOfEachPose(t *testing.T) {
	curlStrong := ts.Recording(t, curl2, ts.Burst(5, 4), ts.Burst(5, 4))
	curlWeak := ts.Recording(t, curl1, ts.Burst(1, 4), ts.Burst(1, 4))
	plank := ts.Recording(t, plank1, ts.Burst(2, 4), ts.Burst(2, 4))
	session := ts.MemorySession(twoChannels, curlStrong, curlWeak, plank)

	c := newCalibrator(t, mvc.Options{Policy: mvc.Fixed{PoseNames: []string{"Curl", "plank"}}})
	profile, err := c.Calibrate(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "fixed", profile.Policy)
	assert.Equal(t, curl1, profile.Channels[0].Source)
	assert.InDelta(t, 1.0, profile.Channels[0].Value, 0.1)
	assert.Equal(t, plank1, profile.Channels[1].Source)
	assert.Len(t, profile.Channels[1].Candidates, 1)
}

func TestFixedMissingPoseFailsWholeCalibration(t *testing.T) {
	session := ts.MemorySession(twoChannels,
		ts.Recording(t, curl1, ts.Burst(1, 4), ts.Burst(1, 4)),
		ts.Recording(t, curl2, ts.Burst(1, 4), ts.Burst(1, 4)))

	c := newCalibrator(t, mvc.Options{Policy: mvc.Fixed{PoseNames: []string{"curl", "squat"}}})
	profile, err := c.Calibrate(context.Background(), session)
	require.Error(t, err)
	assert.Nil(t, profile)
	assert.ErrorIs(t, err, emgerr.ErrSelection)
	assert.Contains(t, err.Error(), `"squat" (channel 1)`)
}

func TestFixedPoseCountMustMatchChannels(t *testing.T) {
	session := ts.MemorySession(twoChannels, ts.Recording(t, curl1, ts.Burst(1, 4), ts.Burst(1, 4)))
	_, err := newCalibrator(t, mvc.Options{Policy: mvc.Fixed{PoseNames: []string{"curl"}}}).
		Calibrate(context.Background(), session)
	assert.ErrorIs(t, err, emgerr.ErrConfiguration)
}

func TestCalibrateSelectionErrors(t *testing.T) {
	c := newCalibrator(t, mvc.Options{})

	_, err := c.Calibrate(context.Background(), ts.MemorySession(twoChannels))
	assert.ErrorIs(t, err, emgerr.ErrSelection)

	_, err = c.Calibrate(context.Background(), ts.MemorySession(nil))
	assert.ErrorIs(t, err, emgerr.ErrSelection)

	narrow := ts.Recording(t, curl1, ts.Burst(1, 4))
	_, err = c.Calibrate(context.Background(), ts.MemorySession(twoChannels, narrow))
	require.ErrorIs(t, err, emgerr.ErrSelection)
	assert.Contains(t, err.Error(), curl1)
}

func TestCalibrateShortRecording(t *testing.T) {
	short := ts.Recording(t, curl1, ts.Burst(1, 1), ts.Burst(1, 1))
	_, err := newCalibrator(t, mvc.Options{}).Calibrate(context.Background(), ts.MemorySession(twoChannels, short))
	assert.ErrorIs(t, err, emgerr.ErrInsufficientData)
}

func TestAutomaticExcludesCandidatesThatCannotScore(t *testing.T) {
	good := ts.Recording(t, curl1, ts.Burst(1, 4), ts.Burst(2, 4))
	short := ts.Recording(t, curl2, ts.Burst(9, 1), ts.Burst(9, 1))
	narrow := ts.Recording(t, plank1, ts.Burst(9, 4))
	session := ts.MemorySession(twoChannels, good, short, narrow)

	profile, err := newCalibrator(t, mvc.Options{}).Calibrate(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, profile.Channels, 2)

	ch0 := profile.Channels[0]
	assert.Equal(t, curl1, ch0.Source)
	assert.InDelta(t, 1.0, ch0.Value, 0.1)
	require.Len(t, ch0.Candidates, 3)
	excluded := ch0.Excluded()
	require.Len(t, excluded, 2)
	assert.Equal(t, curl2, excluded[0].Source)
	assert.ErrorIs(t, excluded[0].Err, emgerr.ErrInsufficientData)
	assert.Equal(t, plank1, excluded[1].Source)
	assert.ErrorIs(t, excluded[1].Err, emgerr.ErrSelection)

	ch1 := profile.Channels[1]
	assert.Equal(t, curl1, ch1.Source)
	assert.InDelta(t, 2.0, ch1.Value, 0.2)
	excluded = ch1.Excluded()
	require.Len(t, excluded, 2)
	assert.Equal(t, curl2, excluded[0].Source)
	assert.Equal(t, plank1, excluded[1].Source)
	assert.ErrorIs(t, excluded[1].Err, emgerr.ErrSelection)
}

func TestFixedFailsWhenPoseRecordingCannotScore(t *testing.T) {
	session := ts.MemorySession(twoChannels,
		ts.Recording(t, curl1, ts.Burst(1, 1), ts.Burst(1, 1)),
		ts.Recording(t, plank1, ts.Burst(1, 4), ts.Burst(1, 4)))

	c := newCalibrator(t, mvc.Options{Policy: mvc.Fixed{PoseNames: []string{"curl", "plank"}}})
	profile, err := c.Calibrate(context.Background(), session)
	assert.Nil(t, profile)
	assert.ErrorIs(t, err, emgerr.ErrInsufficientData)
}

func TestCalibrateRejectsSampleRateMismatch(t *testing.T) {
	session := ts.MemorySession(twoChannels, ts.Recording(t, curl1, ts.Burst(1, 4), ts.Burst(1, 4)))
	session.SampleRate = 1000
	_, err := newCalibrator(t, mvc.Options{}).Calibrate(context.Background(), session)
	assert.ErrorIs(t, err, emgerr.ErrConfiguration)
}

func TestCalibrateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session := ts.MemorySession(twoChannels, ts.Recording(t, curl1, ts.Burst(1, 4), ts.Burst(1, 4)))
	_, err := newCalibrator(t, mvc.Options{}).Calibrate(ctx, session)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProfileValueOutOfRange(t *testing.T) {
	profile := &mvc.Profile{Channels: []mvc.ChannelProfile{{Value: 1}}}
	_, err := profile.Value(1)
	assert.ErrorIs(t, err, emgerr.ErrSelection)
	var missing *mvc.Profile
	_, err = missing.Value(0)
	assert.ErrorIs(t, err, emgerr.ErrSelection)
}

func TestPolicyByName(t *testing.T) {
	p, err := mvc.PolicyByName("", nil)
	require.NoError(t, err)
	assert.Equal(t, "automatic", p.Name())

	p, err = mvc.PolicyByName("fixed", []string{"curl"})
	require.NoError(t, err)
	assert.Equal(t, mvc.Fixed{PoseNames: []string{"curl"}}, p)

	_, err = mvc.PolicyByName("best", nil)
	assert.ErrorIs(t, err, emgerr.ErrConfiguration)
}

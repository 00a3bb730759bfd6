package mvc

import (
	"fmt"
	"strings"

	"myonorm/internal/emgerr"
	"myonorm/internal/recording"
)

// Policy chooses, for every channel of a session, the recordings whose
// envelopes compete for that channel's MVC. Candidates are returned as
// indexes into session.Handles, in input order. ExcludesFailed reports
// whether a candidate that cannot be scored is dropped from the competition
// rather than failing the calibration.
type Policy interface {
	Name() string
	Candidates(session *recording.Session) ([][]int, error)
	ExcludesFailed() bool
}

// Fixed uses one pre-declared pose per channel: PoseNames[i] names the
// exercise performed to elicit channel i's maximum contraction. The first
// repetition-1 recording whose exercise contains the pose is used.
type Fixed struct {
	PoseNames []string
}

func (Fixed) Name() string { return "fixed" }

// ExcludesFailed is false: every declared pose must score.
func (Fixed) ExcludesFailed() bool { return false }

// Candidates resolves every pose before returning so that a single missing
// pose fails the whole calibration.
func (f Fixed) Candidates(session *recording.Session) ([][]int, error) {
	channels := len(session.Channels)
	if len(f.PoseNames) != channels {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "mvc", "fixed policy",
			fmt.Sprintf("%d pose names for %d channels", len(f.PoseNames), channels), nil)
	}
	candidates := make([][]int, channels)
	var missing []string
	for ch, pose := range f.PoseNames {
		idx := findPose(session.Handles, pose)
		if idx < 0 {
			missing = append(missing, fmt.Sprintf("%q (channel %d)", pose, ch))
			continue
		}
		candidates[ch] = []int{idx}
	}
	if len(missing) > 0 {
		return nil, emgerr.Wrap(emgerr.ErrSelection, "mvc", "fixed policy",
			"no repetition-1 recording for pose "+strings.Join(missing, ", "), nil)
	}
	return candidates, nil
}

func findPose(handles []recording.Handle, pose string) int {
	pose = strings.ToLower(strings.TrimSpace(pose))
	if pose == "" {
		return -1
	}
	for i, h := range handles {
		if h.Meta.Repetition == 1 && strings.Contains(strings.ToLower(h.Meta.Exercise), pose) {
			return i
		}
	}
	return -1
}

// Automatic lets every recording of the session compete for every channel.
type Automatic struct{}

func (Automatic) Name() string { return "automatic" }

func (Automatic) ExcludesFailed() bool { return true }

func (Automatic) Candidates(session *recording.Session) ([][]int, error) {
	if len(session.Handles) == 0 {
		return nil, emgerr.Wrap(emgerr.ErrSelection, "mvc", "automatic policy",
			"session has no candidate recordings", nil)
	}
	all := make([]int, len(session.Handles))
	for i := range all {
		all[i] = i
	}
	candidates := make([][]int, len(session.Channels))
	for ch := range candidates {
		candidates[ch] = all
	}
	return candidates, nil
}

// PolicyByName maps a configuration value to a Policy.
func PolicyByName(name string, poseNames []string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "automatic":
		return Automatic{}, nil
	case "fixed":
		return Fixed{PoseNames: append([]string(nil), poseNames...)}, nil
	default:
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "mvc", "policy",
			fmt.Sprintf("unknown calibration policy %q", name), nil)
	}
}

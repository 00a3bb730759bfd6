package recording

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"myonorm/internal/emgerr"
)

var (
	datePattern = regexp.MustCompile(`\d{2}_\d{2}_\d{4}`)
	timePattern = regexp.MustCompile(`^_(\d{2})_(\d{2})_(\d{2})`)
	repPattern  = regexp.MustCompile(`_rep(\d+)(?:\.|$)`)
)

// Metadata is parsed from a session filename of the form
//
//	{participant}_{exercise}_{DD}_{MM}_{YYYY}_{HH}_{MM}_{SS}_rep{N}.{ext}
//
// The exercise may itself contain underscores.
type Metadata struct {
	ParticipantType string
	Exercise        string
	Repetition      int
	RecordedAt      time.Time
}

// ParseFilename extracts Metadata from name. Directories are ignored.
func ParseFilename(name string) (Metadata, error) {
	base := filepath.Base(name)
	loc := datePattern.FindStringIndex(base)
	if loc == nil {
		return Metadata{}, parseError(base, "no DD_MM_YYYY date")
	}

	head := strings.TrimRight(base[:loc[0]], "_")
	participant, exercise, _ := strings.Cut(head, "_")
	exercise = strings.TrimRight(exercise, "_")
	if participant == "" || exercise == "" {
		return Metadata{}, parseError(base, "missing participant or exercise before the date")
	}

	reps := repPattern.FindAllStringSubmatch(base[loc[1]:], -1)
	if len(reps) == 0 {
		return Metadata{}, parseError(base, "no rep{N} suffix")
	}
	rep, err := strconv.Atoi(reps[len(reps)-1][1])
	if err != nil || rep < 1 {
		return Metadata{}, parseError(base, "repetition must be a positive integer")
	}

	recordedAt, err := parseTimestamp(base[loc[0]:loc[1]], base[loc[1]:])
	if err != nil {
		return Metadata{}, parseError(base, err.Error())
	}

	return Metadata{
		ParticipantType: participant,
		Exercise:        exercise,
		Repetition:      rep,
		RecordedAt:      recordedAt,
	}, nil
}

func parseTimestamp(date, rest string) (time.Time, error) {
	clock := "00_00_00"
	if m := timePattern.FindStringSubmatch(rest); m != nil {
		clock = m[1] + "_" + m[2] + "_" + m[3]
	}
	ts, err := time.ParseInLocation("02_01_2006_15_04_05", date+"_"+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %s", date)
	}
	return ts, nil
}

func parseError(name, reason string) error {
	return emgerr.Wrap(emgerr.ErrMetadataParse, "recording", "parse filename",
		fmt.Sprintf("%s: %s", name, reason), nil)
}

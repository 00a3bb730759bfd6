package emgerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myonorm/internal/emgerr"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := emgerr.Wrap(emgerr.ErrSelection, "mvc", "fixed", "no file for pose tadasana", base)
	require.Error(t, err)
	assert.ErrorIs(t, err, emgerr.ErrSelection)
	assert.ErrorIs(t, err, base)
	for _, fragment := range []string{"mvc", "fixed", "tadasana", "boom"} {
		assert.Contains(t, err.Error(), fragment)
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := emgerr.Wrap(emgerr.ErrDivisionByZero, " ", "", "", nil)
	assert.EqualError(t, err, "division by zero: pipeline failure")
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{emgerr.Wrap(emgerr.ErrConfiguration, "filter", "design", "", nil), "configuration"},
		{emgerr.Wrap(emgerr.ErrInsufficientData, "envelope", "trim", "", nil), "insufficient_data"},
		{fmt.Errorf("outer: %w", emgerr.Wrap(emgerr.ErrSelection, "", "", "", nil)), "selection"},
		{emgerr.Wrap(emgerr.ErrDivisionByZero, "normalize", "", "", nil), "division_by_zero"},
		{emgerr.Wrap(emgerr.ErrMetadataParse, "recording", "", "", nil), "metadata_parse"},
		{errors.New("io"), "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, emgerr.Kind(tc.err))
	}
}

package column_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/macropower/xlclean/pkg/column"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		label string
		want  int
	}{
		"A":          {label: "A", want: 0},
		"Z":          {label: "Z", want: 25},
		"AA":         {label: "AA", want: 26},
		"AZ":         {label: "AZ", want: 51},
		"BA":         {label: "BA", want: 52},
		"H":          {label: "H", want: 7},
		"I":          {label: "I", want: 8},
		"BO":         {label: "BO", want: 66},
		"BV":         {label: "BV", want: 73},
		"ZZ":         {label: "ZZ", want: 701},
		"AAA":        {label: "AAA", want: 702},
		"XFD":        {label: "XFD", want: 16383},
		"lower case": {label: "bv", want: 73},
		"mixed case": {label: "bO", want: 66},
		"beyond sheet limits": {
			label: "ZZZZ",
			want:  26*26*26*26 + 26*26*26 + 26*26 + 26 - 1,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := column.Resolve(tc.label)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		label string
	}{
		"empty":        {label: ""},
		"digit":        {label: "A1"},
		"space":        {label: "B V"},
		"dash":         {label: "-"},
		"non-ascii":    {label: "Ä"},
		"leading trim": {label: " H"},
		"overflow":     {label: strings.Repeat("Z", 20)},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := column.Resolve(tc.label)
			require.ErrorIs(t, err, column.ErrInvalidLabel)

			var labelErr *column.LabelError
			require.ErrorAs(t, err, &labelErr)
			assert.Equal(t, tc.label, labelErr.Label)
		})
	}
}

func TestResolve_MatchesExcelize(t *testing.T) {
	t.Parallel()

	for _, label := range []string{"A", "H", "I", "Z", "AA", "BO", "BV", "ZZ", "AAA", "XFD"} {
		want, err := excelize.ColumnNameToNumber(label)
		require.NoError(t, err)

		got, err := column.Resolve(label)
		require.NoError(t, err)
		assert.Equal(t, want-1, got, label)
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()

	for _, idx := range []int{0, 7, 8, 25, 26, 51, 52, 66, 73, 701, 702, 16383} {
		label, err := column.Label(idx)
		require.NoError(t, err)

		back, err := column.Resolve(label)
		require.NoError(t, err)
		assert.Equal(t, idx, back, label)
	}

	got, err := column.Label(73)
	require.NoError(t, err)
	assert.Equal(t, "BV", got)

	_, err = column.Label(-1)
	require.Error(t, err)
}


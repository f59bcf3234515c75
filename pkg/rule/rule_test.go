package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/xlclean/pkg/column"
	"github.com/macropower/xlclean/pkg/rule"
	"github.com/macropower/xlclean/pkg/table"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	rules, err := rule.Default()
	require.NoError(t, err)

	type want struct {
		name     string
		label    string
		index    int
		patterns []string
	}

	wants := []want{
		{name: "ShipmentID", label: "BV", index: 73, patterns: []string{"FOC"}},
		{
			name: "Order", label: "H", index: 7,
			patterns: []string{"test", "testing", "M88", "GB Test", "GB Testing", "GB"},
		},
		{name: "Buyer PO Number", label: "I", index: 8, patterns: []string{"test", "testing", "FOC"}},
		{name: "Comment", label: "BO", index: 66, patterns: []string{"FOC", "M88"}},
	}

	require.Len(t, rules, len(wants))

	for i, w := range wants {
		r := rules[i]
		assert.Equal(t, w.name, r.Name)
		assert.Equal(t, w.label, r.Label())
		assert.Equal(t, w.index, r.Index())
		assert.Equal(t, w.patterns, r.Patterns)
	}

	// Parsed once per process.
	again := rule.MustDefault()
	assert.Same(t, rules[0], again[0])
}

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		data    string
		errIs   error
		errMsg  string
		wantLen int
	}{
		"valid": {
			data:    "rules:\n  - name: A\n    column: a\n    patterns: [x]\n",
			wantLen: 1,
		},
		"unnamed rule": {
			data:    "rules:\n  - column: ZZ\n    patterns: [x, y]\n",
			wantLen: 1,
		},
		"invalid label": {
			data:   "rules:\n  - name: A\n    column: A1\n    patterns: [x]\n",
			errMsg: "$.rules[0].column",
		},
		"empty label": {
			data:   "rules:\n  - name: A\n    column: \"\"\n    patterns: [x]\n",
			errMsg: "$.rules[0].column",
		},
		"no patterns": {
			data:   "rules:\n  - name: A\n    column: A\n    patterns: []\n",
			errMsg: "$.rules[0].patterns",
		},
		"unknown field": {
			data:   "rules:\n  - name: A\n    column: A\n    patterns: [x]\n    regex: true\n",
			errMsg: "validate rules",
		},
		"no rules": {
			data:   "rules: []\n",
			errMsg: "$.rules",
		},
		"not yaml": {
			data:   "rules: [\n",
			errMsg: "decode rules",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rules, err := rule.Parse([]byte(tc.data))
			if tc.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)

				return
			}

			require.NoError(t, err)
			assert.Len(t, rules, tc.wantLen)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	r, err := rule.New("Order", "h", "M88")
	require.NoError(t, err)
	assert.Equal(t, 7, r.Index())
	assert.Equal(t, "H", r.Label())

	r, err = rule.New("Shipment", "bv", "FOC")
	require.NoError(t, err)
	assert.Equal(t, 73, r.Index())
	assert.Equal(t, "BV", r.Label())

	uncompiled := &rule.Rule{Column: "bo", Patterns: []string{"x"}}
	assert.Equal(t, "BO", uncompiled.Label())

	_, err = rule.New("Bad", "H7", "x")
	require.ErrorIs(t, err, column.ErrInvalidLabel)
	assert.Contains(t, err.Error(), `rule "Bad"`)

	_, err = rule.New("Empty", "H")
	require.Error(t, err)

	_, err = rule.New("Blank", "H", "x", "")
	require.Error(t, err)

	assert.Panics(t, func() {
		rule.MustNew("Bad", "7", "x")
	})
}

func TestRule_Match(t *testing.T) {
	t.Parallel()

	r := rule.MustNew("Order", "B", "M88", "GB")

	tcs := map[string]struct {
		row  table.Row
		want string
		ok   bool
	}{
		"matches": {
			row:  table.Row{table.EmptyCell(), table.TextCell("M880123")},
			want: "M88",
			ok:   true,
		},
		"case-insensitive": {
			row:  table.Row{table.EmptyCell(), table.TextCell("gbx")},
			want: "GB",
			ok:   true,
		},
		"other column": {
			row: table.Row{table.TextCell("M88"), table.TextCell("valid")},
		},
		"empty cell": {
			row: table.Row{table.TextCell("M88"), table.EmptyCell()},
		},
		"row too narrow": {
			row: table.Row{table.TextCell("M88")},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := r.MatchedPattern(tc.row)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, r.Match(tc.row))
		})
	}
}

func TestRule_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Comment (BO): FOC, M88", rule.MustNew("Comment", "bo", "FOC", "M88").String())
	assert.Equal(t, "Column H", rule.MustNew("", "H", "x").DisplayName())
}

func TestTable_MarshalYAML(t *testing.T) {
	t.Parallel()

	b, err := rule.MustDefault().MarshalYAML()
	require.NoError(t, err)

	back, err := rule.Parse(b)
	require.NoError(t, err)
	require.Len(t, back, 4)
	assert.Equal(t, "BV", back[0].Label())
	assert.Equal(t, []string{"FOC", "M88"}, back[3].Patterns)
}

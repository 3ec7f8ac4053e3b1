package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short", in: "10%", max: 70, want: "10%"},
		{name: "exact", in: "abcde", max: 5, want: "abcde"},
		{name: "cut", in: "abcdefgh", max: 6, want: "abc..."},
		{name: "multibyte", in: "ééééééé", max: 5, want: "éé..."},
		{name: "tiny max", in: "abcdef", max: 2, want: "ab"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, truncate(tc.in, tc.max))
		})
	}
}

func TestNewDescriptions(t *testing.T) {
	t.Parallel()

	text, parts, last := newDescriptions([]StatusUpdate{
		{Description: "a"},
		{Description: ""},
		{Description: "b", Done: true},
	}, "")
	assert.Equal(t, "a; b", text)
	assert.Equal(t, []string{"a", "b"}, parts)
	assert.Equal(t, "b", last)

	text, parts, last = newDescriptions(nil, "b")
	assert.Empty(t, text)
	assert.Empty(t, parts)
	assert.Equal(t, "b", last)
}

func TestNewDescriptions_SkipsRepeats(t *testing.T) {
	t.Parallel()

	text, parts, last := newDescriptions([]StatusUpdate{
		{Description: "step 2 of 5"},
		{Description: "step 2 of 5"},
		{Description: "step 3 of 5"},
		{Description: "step 2 of 5"},
	}, "step 2 of 5")
	assert.Equal(t, "step 3 of 5; step 2 of 5", text)
	assert.Equal(t, []string{"step 3 of 5", "step 2 of 5"}, parts)
	assert.Equal(t, "step 2 of 5", last)
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "polling", StatePolling.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateDetached.Terminal())
	assert.False(t, StatePolling.Terminal())
}

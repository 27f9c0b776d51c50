package chat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestVisibleWindowLength(t *testing.T) {
	for n := 0; n <= 25; n++ {
		for max := 1; max <= 20; max++ {
			got := VisibleWindow(seq(n), max)
			assert.Equal(t, min(n, max), len(got), "n=%d max=%d", n, max)
		}
	}
}

func TestVisibleWindowIsOrderedSuffix(t *testing.T) {
	for n := 0; n <= 25; n++ {
		full := seq(n)
		for max := 1; max <= 20; max++ {
			got := VisibleWindow(full, max)
			want := full[len(full)-len(got):]
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("n=%d max=%d (-want +got):\n%s", n, max, diff)
			}
		}
	}
}

func TestVisibleWindowTwentyOfFifteen(t *testing.T) {
	msgs := make([]Message, 20)
	for i := range msgs {
		msgs[i] = Message{ID: string(rune('a' + i))}
	}

	got := VisibleWindow(msgs, 15)

	if diff := cmp.Diff(msgs[5:20], got); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestVisibleWindowUnbounded(t *testing.T) {
	full := seq(40)
	assert.Equal(t, full, VisibleWindow(full, 0))
	assert.Equal(t, full, VisibleWindow(full, -3))
}

func TestVisibleWindowShortListUnchanged(t *testing.T) {
	full := seq(3)
	assert.Equal(t, full, VisibleWindow(full, 15))
	assert.Empty(t, VisibleWindow([]int{}, 15))
}

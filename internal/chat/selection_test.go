package chat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionToggleOnEmpty(t *testing.T) {
	s := NewSelection()

	active := s.Toggle("A")
	assert.True(t, active)
	assert.Equal(t, []string{"A"}, s.IDs())

	active = s.Toggle("A")
	assert.False(t, active)
	assert.Empty(t, s.IDs())
	assert.False(t, s.Active())
}

func TestSelectionToggleIsItsOwnInverse(t *testing.T) {
	// 不同初始集合、已选和未选的元素都要覆盖
	starts := [][]string{
		nil,
		{"a"},
		{"a", "b", "c"},
		{"c", "a"},
	}
	items := []string{"a", "b", "c", "z"}

	for _, start := range starts {
		for _, item := range items {
			s := NewSelection()
			for _, id := range start {
				s.Toggle(id)
			}
			before := s.IDs()

			s.Toggle(item)
			s.Toggle(item)

			// 重新加入的元素会排到末尾，集合语义上比较成员
			if diff := cmp.Diff(asSet(before), asSet(s.IDs())); diff != "" {
				t.Errorf("start=%v item=%s (-want +got):\n%s", start, item, diff)
			}
			assert.Equal(t, len(before) > 0, s.Active())
		}
	}
}

func TestSelectionStartWith(t *testing.T) {
	for _, prior := range [][]string{nil, {"x"}, {"x", "y", "z"}, {"m"}} {
		s := NewSelection()
		for _, id := range prior {
			s.Toggle(id)
		}

		s.StartWith("m")

		require.Equal(t, []string{"m"}, s.IDs())
		assert.True(t, s.Active())
	}
}

func TestSelectionClear(t *testing.T) {
	s := NewSelection()
	s.Toggle("a")
	s.Toggle("b")

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Active())
	assert.False(t, s.Contains("a"))

	// 空集合上再次清空也成立
	s.Clear()
	assert.False(t, s.Active())
}

func TestSelectionKeepsInsertionOrder(t *testing.T) {
	s := NewSelection()
	s.Toggle("c")
	s.Toggle("a")
	s.Toggle("b")
	s.Toggle("a")

	assert.Equal(t, []string{"c", "b"}, s.IDs())
}

func TestSelectionIDsReturnsCopy(t *testing.T) {
	s := NewSelection()
	s.Toggle("a")

	ids := s.IDs()
	ids[0] = "mutated"

	assert.True(t, s.Contains("a"))
}

func asSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

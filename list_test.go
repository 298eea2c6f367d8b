package r

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAddAndGet(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	i := l.AddItem("a")
	assert.Equal(t, 0, i)
	assert.Equal(t, "a", l.GetItem(0))
	assert.Equal(t, 1, l.Len())
}

func TestListGetItemOutOfRange(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	assert.Nil(t, l.GetItem(5))
	assert.Nil(t, l.GetItem(-1))
}

func TestListAddNullItemDoesNotStopIterationMidList(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	l.AddItem("first")
	l.AddNullItem()
	l.AddItem("third")

	var cursor int
	var got []any
	for {
		item, ok := l.GetNextItem(&cursor)
		if !ok {
			break
		}
		got = append(got, item)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, "third", got[2])
}

func TestListInsertItemAtShifts(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	l.AddItem("a")
	l.AddItem("c")
	require.NoError(t, l.InsertItemAt(1, "b"))
	assert.Equal(t, []any{"a", "b", "c"}, l.items)
}

func TestListInsertItemAtBeyondLengthZeroFills(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	require.NoError(t, l.InsertItemAt(2, "x"))
	assert.Equal(t, 3, l.Len())
	assert.Nil(t, l.GetItem(0))
	assert.Nil(t, l.GetItem(1))
	assert.Equal(t, "x", l.GetItem(2))
}

func TestListRemoveItem(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	l.AddItem("a")
	l.AddItem("b")
	assert.True(t, l.RemoveItem("a"))
	assert.False(t, l.RemoveItem("missing"))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, "b", l.GetItem(0))
}

func TestListRemoveStringItem(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	l.AddItem("a")
	l.AddItem("b")
	assert.True(t, l.RemoveStringItem("a"))
	assert.Equal(t, 1, l.Len())
}

func TestListLookupItem(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	l.AddItem("a")
	l.AddItem("b")
	assert.Equal(t, 1, l.LookupItem("b"))
	assert.Equal(t, -1, l.LookupItem("z"))
}

func TestListSortList(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	l.AddItem(3)
	l.AddItem(1)
	l.AddItem(2)
	l.SortList(func(a, b any) int { return a.(int) - b.(int) })
	assert.Equal(t, []any{1, 2, 3}, l.items)
}

func TestListTemporalValueClonesOnInsert(t *testing.T) {
	type box struct{ v int }
	clone := func(a any) any {
		b := a.(*box)
		c := *b
		return &c
	}
	l := NewList(0, TemporalValue, clone)
	original := &box{v: 1}
	l.AddItem(original)
	original.v = 2

	stored := l.GetItem(0).(*box)
	assert.Equal(t, 1, stored.v, "TemporalValue list must clone on insert")
}

func TestListClearListRetainsCapacity(t *testing.T) {
	l := NewList(4, StaticValue, nil)
	l.AddItem("a")
	l.ClearList()
	assert.Equal(t, 0, l.Len())
}

func TestListPushPop(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	l.Push("a")
	l.Push("b")
	item, ok := l.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", item)
	assert.Equal(t, 1, l.Len())

	l2 := NewList(0, StaticValue, nil)
	_, ok = l2.Pop()
	assert.False(t, ok)
}

func TestListToString(t *testing.T) {
	l := NewList(0, StaticValue, nil)
	l.AddItem("a")
	l.AddItem(1)
	assert.Equal(t, "a,1", l.ListToString(","))
}

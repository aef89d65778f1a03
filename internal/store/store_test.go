package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMapSetGetDelete(t *testing.T) {
	m := NewMap()

	m.Set([]byte("a"), []byte("1"))
	m.Set([]byte("b"), []byte("2"))

	value, ok := m.Get([]byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("1"), value)

	m.Set([]byte("a"), []byte("replaced"))
	value, ok = m.Get([]byte("a"))
	require.True(t, ok)
	require.Equal(t, []byte("replaced"), value)
	require.Equal(t, 2, m.Len())

	require.True(t, m.Delete([]byte("a")))
	require.False(t, m.Delete([]byte("a")))
	require.False(t, m.Has([]byte("a")))
	require.Equal(t, 1, m.Len())
}

func TestMapSetCopiesKeyAndValue(t *testing.T) {
	m := NewMap()
	key := []byte("key")
	value := []byte("value")
	m.Set(key, value)

	key[0] = 'x'
	value[0] = 'x'

	got, ok := m.Get([]byte("key"))
	require.True(t, ok)
	require.Equal(t, []byte("value"), got)
}

func TestMapAscendRangeInclusive(t *testing.T) {
	m := NewMap()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		m.Set([]byte(k), []byte(k))
	}

	var visited []string
	m.AscendRange([]byte("b"), []byte("d"), func(key, _ []byte) bool {
		visited = append(visited, string(key))
		return true
	})
	require.Equal(t, []string{"b", "c", "d"}, visited)
}

func TestMapAscendRangeEarlyStop(t *testing.T) {
	m := NewMap()
	for _, k := range []string{"a", "b", "c"} {
		m.Set([]byte(k), nil)
	}

	count := 0
	m.AscendRange([]byte("a"), []byte("c"), func(_, _ []byte) bool {
		count++
		return false
	})
	require.Equal(t, 1, count)
}

func TestAppendStringPreservesOrder(t *testing.T) {
	// "ab" must sort before "b" even though 'b' > 'a' at the shared prefix
	// boundary; the terminator guarantees shorter segments sort first.
	short := AppendString(nil, "ab")
	long := AppendString(nil, "abc")
	other := AppendString(nil, "b")

	m := NewMap()
	m.Set(other, nil)
	m.Set(long, nil)
	m.Set(short, nil)

	var keys [][]byte
	m.Ascend(func(key, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	require.Equal(t, [][]byte{short, long, other}, keys)
}

func TestAppendTimeOrdering(t *testing.T) {
	early := AppendTime(nil, time.Unix(100, 0))
	late := AppendTime(nil, time.Unix(100, 1))
	zero := AppendTime(nil, time.Time{})
	max := AppendTime(nil, MaxTime)

	m := NewMap()
	for _, k := range [][]byte{late, zero, max, early} {
		m.Set(k, nil)
	}

	var keys [][]byte
	m.Ascend(func(key, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	require.Equal(t, [][]byte{zero, early, late, max}, keys)
}

func TestIDFromSuffix(t *testing.T) {
	id := uuid.New()
	key := AppendString(nil, "CREATED")
	key = AppendTime(key, time.Now())
	key = AppendID(key, id)

	got, ok := IDFromSuffix(key)
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = IDFromSuffix([]byte("short"))
	require.False(t, ok)
}

func TestIDSentinelsBoundAllIDs(t *testing.T) {
	id := uuid.New()
	lower := AppendID(nil, MinID)
	upper := AppendID(nil, MaxID)

	m := NewMap()
	m.Set(AppendID(nil, id), nil)

	found := 0
	m.AscendRange(lower, upper, func(_, _ []byte) bool {
		found++
		return true
	})
	require.Equal(t, 1, found)
}

func TestMapConcurrentReadersAndWriters(t *testing.T) {
	m := NewMap()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := []byte(fmt.Sprintf("w%d-%03d", w, i))
				m.Set(key, []byte("v"))
				m.Get(key)
				m.AscendRange([]byte("w0"), []byte{0xff}, func(_, _ []byte) bool {
					return true
				})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 400, m.Len())
}

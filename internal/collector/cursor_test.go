package collector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorLimit(t *testing.T) {
	cur, err := NewCursor(3, "", "")
	require.NoError(t, err)

	assert.True(t, cur.Take())
	assert.True(t, cur.Take())
	assert.True(t, cur.Take())
	assert.False(t, cur.Take())
	assert.True(t, cur.Exhausted())
	assert.Equal(t, 3, cur.Taken())
}

func TestCursorUnlimited(t *testing.T) {
	cur, err := NewCursor(0, "", "")
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		assert.True(t, cur.Take())
	}
	assert.False(t, cur.Exhausted())
}

func TestCursorStop(t *testing.T) {
	cur, err := NewCursor(0, "", "")
	require.NoError(t, err)

	assert.True(t, cur.Take())
	cur.Stop()
	assert.False(t, cur.Take())
	assert.True(t, cur.Exhausted())
	assert.Equal(t, 1, cur.Taken())
}

func TestCursorConcurrentTake(t *testing.T) {
	cur, err := NewCursor(50, "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if cur.Take() {
					mu.Lock()
					granted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, granted)
}

func TestCursorDateWindow(t *testing.T) {
	cur, err := NewCursor(0, "2024-01-01", "2024-12-31")
	require.NoError(t, err)

	tests := []struct {
		name string
		date string
		want DateVerdict
	}{
		{name: "inside window", date: "2024-06-15", want: DateWithin},
		{name: "window start inclusive", date: "2024-01-01", want: DateWithin},
		{name: "window end inclusive", date: "2024-12-31", want: DateWithin},
		{name: "before window", date: "2023-12-31", want: DateTooOld},
		{name: "after window", date: "2025-01-01", want: DateTooNew},
		{name: "empty date passes", date: "", want: DateWithin},
		{name: "unparseable date passes", date: "sem data", want: DateWithin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cur.CheckDate(tt.date))
		})
	}
}

func TestCursorOpenEndedWindow(t *testing.T) {
	cur, err := NewCursor(0, "2024-01-01", "")
	require.NoError(t, err)

	assert.Equal(t, DateWithin, cur.CheckDate("2030-05-01"))
	assert.Equal(t, DateTooOld, cur.CheckDate("2023-05-01"))
}

func TestCursorInvalidDates(t *testing.T) {
	_, err := NewCursor(0, "01/01/2024", "")
	assert.Error(t, err)

	_, err = NewCursor(0, "2024-06-01", "2024-01-01")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("proposicoescidrj")
	assert.Error(t, err)
	assert.Empty(t, reg.Slugs())
}

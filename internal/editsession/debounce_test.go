package editsession_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vmxmy/salary-system-v2-sub006/internal/editsession"
)

func TestDebouncerCoalescesRapidCalls(t *testing.T) {
	d := editsession.NewDebouncer(30 * time.Millisecond)

	var calls int32
	var last int32
	for i := int32(1); i <= 5; i++ {
		v := i
		d.Schedule("key", func() {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&last, v)
		})
	}

	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(5), atomic.LoadInt32(&last))
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := editsession.NewDebouncer(20 * time.Millisecond)

	var a, b int32
	d.Schedule("a", func() { atomic.AddInt32(&a, 1) })
	d.Schedule("b", func() { atomic.AddInt32(&b, 1) })

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&a))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b))
}

func TestDebouncerCancel(t *testing.T) {
	d := editsession.NewDebouncer(20 * time.Millisecond)

	var calls int32
	d.Schedule("key", func() { atomic.AddInt32(&calls, 1) })
	d.Cancel("key")

	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDebouncerFlushRunsPendingImmediately(t *testing.T) {
	d := editsession.NewDebouncer(10 * time.Second)

	var calls int32
	d.Schedule("a", func() { atomic.AddInt32(&calls, 1) })
	d.Schedule("b", func() { atomic.AddInt32(&calls, 1) })

	d.Flush()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// Flushed actions do not fire a second time.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDebouncerCancelAll(t *testing.T) {
	d := editsession.NewDebouncer(20 * time.Millisecond)

	var calls int32
	d.Schedule("a", func() { atomic.AddInt32(&calls, 1) })
	d.Schedule("b", func() { atomic.AddInt32(&calls, 1) })
	d.CancelAll()

	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

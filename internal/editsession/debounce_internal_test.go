package editsession

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStaleTimerFireSkipsReplacedAction(t *testing.T) {
	d := NewDebouncer(time.Hour)

	var first, second int32
	d.Schedule("key", func() { atomic.AddInt32(&first, 1) })
	d.Schedule("key", func() { atomic.AddInt32(&second, 1) })

	// A first timer whose Stop came too late fires with its old generation
	// and must not run the replacement early.
	d.fire("key", 1)
	assert.Zero(t, atomic.LoadInt32(&first))
	assert.Zero(t, atomic.LoadInt32(&second))

	d.fire("key", 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&second))

	// A duplicate fire after the action ran is a no-op.
	d.fire("key", 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&second))
}

package makefoods

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeed_LatestWins(t *testing.T) {
	f := NewFeed(0)
	ch, cancel := f.Subscribe()
	defer cancel()

	assert.Equal(t, 0, <-ch)

	f.Publish(1)
	f.Publish(2)
	f.Publish(3)

	assert.Equal(t, 3, <-ch)
	assert.Equal(t, 3, f.Load())

	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestFeed_CancelClosesChannel(t *testing.T) {
	f := NewFeed("a")
	ch, cancel := f.Subscribe()
	<-ch

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// publishing after cancel must not block or panic
	f.Publish("b")
	assert.Equal(t, "b", f.Load())
}

package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldowns_TryStart(t *testing.T) {
	c := NewCooldowns(time.Minute)
	key := Key("u1", "g1")

	assert.True(t, c.TryStart(key, epoch))
	assert.False(t, c.TryStart(key, epoch.Add(59*time.Second)))
	assert.True(t, c.Active(key, epoch.Add(59*time.Second)))
	assert.Equal(t, time.Second, c.Remaining(key, epoch.Add(59*time.Second)))

	assert.True(t, c.TryStart(key, epoch.Add(time.Minute)))
	assert.True(t, c.TryStart(Key("u2", "g1"), epoch), "keys are independent")
}

func TestCooldowns_Sweep(t *testing.T) {
	c := NewCooldowns(time.Minute)
	c.TryStart("a", epoch)
	c.TryStart("b", epoch.Add(30*time.Second))

	removed := c.Sweep(epoch.Add(70 * time.Second))

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, time.Duration(0), c.Remaining("a", epoch.Add(70*time.Second)))
}

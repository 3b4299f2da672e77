package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpeedWindow(t *testing.T) {
	var w speedWindow
	assert.EqualValues(t, 33, w.push(100))
	assert.EqualValues(t, 100, w.push(200))
	assert.EqualValues(t, 200, w.push(300))
	// oldest sample (100) drops out
	assert.EqualValues(t, 333, w.push(500))
}

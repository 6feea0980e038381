package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIconIsICO(t *testing.T) {
	assert.Greater(t, len(icon), 6)
	assert.Equal(t, []byte{0, 0, 1, 0}, icon[:4])
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "vgamepadnet", Tooltip(nil))
	assert.Equal(t, "vgamepadnet - http://10.0.0.2:35714/abcdefgh/", Tooltip([]string{"http://10.0.0.2:35714/abcdefgh/", "http://x/"}))
	assert.Equal(t, "0 controllers connected", SessionsTitle(0))
	assert.Equal(t, "1 controller connected", SessionsTitle(1))
	assert.Equal(t, "3 controllers connected", SessionsTitle(3))
}

package smoke

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel_Ordering(t *testing.T) {
	assert.Less(t, Clear, Detected)
	assert.Less(t, Detected, Warning)
	assert.Less(t, Warning, FireAlert)
	assert.Equal(t, 4, NumLevels)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "CLEAR", Clear.String())
	assert.Equal(t, "SMOKE DETECTED", Detected.String())
	assert.Equal(t, "HEAVY SMOKE", Warning.String())
	assert.Equal(t, "FIRE ALERT", FireAlert.String())
	assert.Equal(t, "UNKNOWN", Level(7).String())
	assert.Equal(t, "UNKNOWN", Level(-1).String())
}

func TestLevel_IsSmoke(t *testing.T) {
	assert.False(t, Clear.IsSmoke())
	assert.True(t, Detected.IsSmoke())
	assert.True(t, Warning.IsSmoke())
	assert.True(t, FireAlert.IsSmoke())
}

func TestLevel_Advice(t *testing.T) {
	for l := Clear; l <= FireAlert; l++ {
		assert.NotEmpty(t, l.Advice(), l.String())
	}
	assert.Nil(t, Level(9).Advice())
}

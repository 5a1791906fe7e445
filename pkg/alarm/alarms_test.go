package alarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActiveAlarms(t *testing.T) {
	a := &ActiveAlarms{}
	assert.True(t, a.Add(Alarm{Area: "SE3", Kind: "currency_mismatch"}))
	assert.False(t, a.Add(Alarm{Area: "SE3", Kind: "currency_mismatch", Message: "again"}))
	assert.True(t, a.Add(Alarm{Area: "SE3", Kind: "invalid_data"}))
	assert.True(t, a.Add(Alarm{Area: "NO1", Kind: "invalid_data"}))

	list := a.List()
	if assert.Len(t, list, 3) {
		assert.Equal(t, "NO1", list[0].Area)
		assert.Equal(t, "currency_mismatch", list[1].Kind)
		assert.Empty(t, list[1].Message)
	}

	assert.True(t, a.Clear("SE3", "invalid_data"))
	assert.False(t, a.Clear("SE3", "invalid_data"))
	assert.Len(t, a.List(), 2)

	assert.True(t, a.Clear("SE3", ""))
	assert.False(t, a.Clear("SE3", ""))
	assert.Len(t, a.List(), 1)
}

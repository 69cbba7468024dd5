package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "Succeeded", Success().String())
	assert.Equal(t, "Failed", Failure("").String())
	assert.Equal(t, "Failed. no speech recognized", Failure(" no speech recognized ").String())
	assert.Equal(t, "Failed", Outcome{}.String())
}

func TestAll(t *testing.T) {
	assert.True(t, All(Success(), Success()).OK())
	assert.True(t, All().OK())

	got := All(Success(), Failure("a"), Failure(""), Failure("b"))
	assert.False(t, got.OK())
	assert.Equal(t, "a; b", got.Reason)
}

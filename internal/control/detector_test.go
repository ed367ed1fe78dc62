package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempomat/internal/bus"
	"github.com/roach88/tempomat/internal/config"
	"github.com/roach88/tempomat/internal/engine"
)

func TestPedalDetector(t *testing.T) {
	pol := NewStandardPolicies(config.Default())
	d := NewPedalDetector(pol)

	tests := []struct {
		name      string
		accel     float64
		brake     float64
		wantAccel bool
		wantBrake bool
	}{
		{"both released", 0, 0, false, false},
		{"accelerator pressed", 10, 0, true, false},
		{"brake pressed", 0, 42, false, true},
		{"both pressed", 50, 50, true, true},
		{"at threshold counts as released", 3.0, 3.0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bus.New()
			b.EmitFloat(bus.SigAccel, tt.accel)
			b.EmitFloat(bus.SigBrake, tt.brake)

			require.NoError(t, d.Step(&engine.Tick{Seq: 1, Bus: b}))

			assert.Equal(t, tt.wantAccel, b.Present(bus.SigAccelPressed))
			assert.Equal(t, tt.wantBrake, b.Present(bus.SigBrakePressed))
		})
	}
}

func TestSpeedChecker(t *testing.T) {
	pol := NewStandardPolicies(config.Default())
	c := NewSpeedChecker(pol, false)

	b := bus.New()
	b.EmitFloat(bus.SigSpeed, 100)
	require.NoError(t, c.Step(&engine.Tick{Seq: 1, Bus: b}))
	assert.True(t, b.Present(bus.SigSpeedValid))

	b = bus.New()
	b.EmitFloat(bus.SigSpeed, 20)
	require.NoError(t, c.Step(&engine.Tick{Seq: 1, Bus: b}))
	assert.False(t, b.Present(bus.SigSpeedValid))
}

func TestSpeedChecker_FirstTickSuppression(t *testing.T) {
	pol := NewStandardPolicies(config.Default())
	c := NewSpeedChecker(pol, true)

	// Tick 1: valid speed, but the checker stays silent.
	b := bus.New()
	b.EmitFloat(bus.SigSpeed, 100)
	require.NoError(t, c.Step(&engine.Tick{Seq: 1, Bus: b}))
	assert.False(t, b.Present(bus.SigSpeedValid))

	// Tick 2 onward behaves normally.
	b = bus.New()
	b.EmitFloat(bus.SigSpeed, 100)
	require.NoError(t, c.Step(&engine.Tick{Seq: 2, Bus: b}))
	assert.True(t, b.Present(bus.SigSpeedValid))
}

package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempomat/internal/bus"
	"github.com/roach88/tempomat/internal/config"
	"github.com/roach88/tempomat/internal/engine"
)

// newManagerHarness wires a speed manager alone onto a scheduler so
// its delayed reads run against real committed frames.
func newManagerHarness() (*SpeedManager, *engine.Scheduler) {
	manager := NewSpeedManager(NewStandardPolicies(config.Default()))
	sched := engine.NewScheduler([]engine.Process{manager})
	return manager, sched
}

func stateSeed(state int64) engine.Seed {
	return engine.Seed{Sig: bus.SigCruiseState, Kind: bus.KindInt, Int: state}
}

func TestSpeedManager_ActivationCapturesSpeed(t *testing.T) {
	manager, sched := newManagerHarness()

	frame, err := sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigGoingOn),
		engine.FloatSeed(bus.SigSpeed, 97),
		stateSeed(StateOn),
	})
	require.NoError(t, err)

	assert.True(t, frame.Present(bus.SigCruiseSpeed))
	assert.Equal(t, 97.0, frame.Float(bus.SigCruiseSpeed))
	assert.Equal(t, 97.0, manager.CruiseSpeed())
}

func TestSpeedManager_ActivationClampsToBounds(t *testing.T) {
	manager, sched := newManagerHarness()

	_, err := sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigGoingOn),
		engine.FloatSeed(bus.SigSpeed, 20),
		stateSeed(StateOn),
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, manager.CruiseSpeed())

	_, err = sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigGoingOn),
		engine.FloatSeed(bus.SigSpeed, 300),
		stateSeed(StateOn),
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, manager.CruiseSpeed())
}

func TestSpeedManager_SetUsesPreviousTickSpeed(t *testing.T) {
	manager, sched := newManagerHarness()

	_, err := sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigGoingOn),
		engine.FloatSeed(bus.SigSpeed, 100),
		stateSeed(StateOn),
	})
	require.NoError(t, err)

	// Set on tick 2 re-captures the speed committed on tick 1, not
	// the speed driven on tick 2.
	_, err = sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigSet),
		engine.FloatSeed(bus.SigSpeed, 80),
		stateSeed(StateOn),
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, manager.CruiseSpeed())

	_, err = sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigSet),
		engine.FloatSeed(bus.SigSpeed, 80),
		stateSeed(StateOn),
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, manager.CruiseSpeed())
}

func TestSpeedManager_QuickAdjustSteps(t *testing.T) {
	manager, sched := newManagerHarness()

	_, err := sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigGoingOn),
		engine.FloatSeed(bus.SigSpeed, 100),
		stateSeed(StateOn),
	})
	require.NoError(t, err)

	_, err = sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigQuickAccel),
		engine.FloatSeed(bus.SigSpeed, 100),
		stateSeed(StateOn),
	})
	require.NoError(t, err)
	assert.Equal(t, 102.5, manager.CruiseSpeed())

	_, err = sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigQuickDecel),
		engine.FloatSeed(bus.SigSpeed, 100),
		stateSeed(StateOn),
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, manager.CruiseSpeed())
}

func TestSpeedManager_SimultaneousQuickAdjustCancels(t *testing.T) {
	manager, sched := newManagerHarness()

	_, err := sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigGoingOn),
		engine.FloatSeed(bus.SigSpeed, 100),
		stateSeed(StateOn),
	})
	require.NoError(t, err)

	frame, err := sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigQuickAccel),
		engine.PureSeed(bus.SigQuickDecel),
		engine.FloatSeed(bus.SigSpeed, 100),
		stateSeed(StateOn),
	})
	require.NoError(t, err)

	// No adjustment fired, so CruiseSpeed was not re-emitted; the
	// frame still carries its committed value forward.
	assert.False(t, frame.Present(bus.SigCruiseSpeed))
	assert.Equal(t, 100.0, frame.Float(bus.SigCruiseSpeed))
	assert.Equal(t, 100.0, manager.CruiseSpeed())
}

func TestSpeedManager_NoAdjustmentWhenOff(t *testing.T) {
	manager, sched := newManagerHarness()

	_, err := sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigGoingOn),
		engine.FloatSeed(bus.SigSpeed, 100),
		stateSeed(StateOn),
	})
	require.NoError(t, err)

	frame, err := sched.Step([]engine.Seed{
		engine.PureSeed(bus.SigQuickAccel),
		engine.FloatSeed(bus.SigSpeed, 100),
		stateSeed(StateOff),
	})
	require.NoError(t, err)

	assert.False(t, frame.Present(bus.SigCruiseSpeed))
	assert.Equal(t, 100.0, manager.CruiseSpeed())
}

package bus

// Signal identifies one broadcast signal on the bus.
//
// The signal set is fixed at compile time - the process network topology
// never changes at runtime, so signals are a dense enum rather than
// interned strings. This keeps Bus storage as flat arrays with no map
// iteration anywhere on the tick path (determinism requirement).
type Signal int

const (
	// Driver buttons (momentary, pure signals seeded from external inputs).
	SigOn Signal = iota
	SigOff
	SigResume
	SigSet
	SigQuickAccel
	SigQuickDecel

	// Continuous measurements (valued float signals seeded every tick).
	SigAccel
	SigBrake
	SigSpeed

	// Derived signals emitted by processes within the tick.
	SigAccelPressed
	SigBrakePressed
	SigSpeedValid
	SigCruiseState // valued int: controller state code
	SigGoingOn     // pure: present only on the Off->On transition tick
	SigCruiseSpeed // valued float: committed cruise speed
	SigThrottleCmd // valued float: throttle command

	numSignals
)

// NumSignals is the size of the fixed signal set.
const NumSignals = int(numSignals)

// Kind describes the payload a signal carries.
type Kind int

const (
	// KindPure signals carry presence only.
	KindPure Kind = iota
	// KindFloat signals carry a float64 value.
	KindFloat
	// KindInt signals carry an int64 value.
	KindInt
)

// kinds maps each signal to its declared payload kind.
// Emitting a signal with the wrong payload is a programming error
// and is reported as a signal conflict by the Bus.
var kinds = [NumSignals]Kind{
	SigOn:           KindPure,
	SigOff:          KindPure,
	SigResume:       KindPure,
	SigSet:          KindPure,
	SigQuickAccel:   KindPure,
	SigQuickDecel:   KindPure,
	SigAccel:        KindFloat,
	SigBrake:        KindFloat,
	SigSpeed:        KindFloat,
	SigAccelPressed: KindPure,
	SigBrakePressed: KindPure,
	SigSpeedValid:   KindPure,
	SigCruiseState:  KindInt,
	SigGoingOn:      KindPure,
	SigCruiseSpeed:  KindFloat,
	SigThrottleCmd:  KindFloat,
}

var names = [NumSignals]string{
	SigOn:           "On",
	SigOff:          "Off",
	SigResume:       "Resume",
	SigSet:          "Set",
	SigQuickAccel:   "QuickAccel",
	SigQuickDecel:   "QuickDecel",
	SigAccel:        "Accel",
	SigBrake:        "Brake",
	SigSpeed:        "Speed",
	SigAccelPressed: "AccelPressed",
	SigBrakePressed: "BrakePressed",
	SigSpeedValid:   "SpeedValid",
	SigCruiseState:  "CruiseState",
	SigGoingOn:      "GoingOn",
	SigCruiseSpeed:  "CruiseSpeed",
	SigThrottleCmd:  "ThrottleCmd",
}

// KindOf returns the declared payload kind of a signal.
func KindOf(s Signal) Kind {
	return kinds[s]
}

// String returns the signal's stable name for traces and diagnostics.
func (s Signal) String() string {
	if s < 0 || int(s) >= NumSignals {
		return "unknown"
	}
	return names[s]
}

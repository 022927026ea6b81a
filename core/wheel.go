package core

import "github.com/go-gl/mathgl/mgl64"

// Axle identifies which axle a wheel hangs from
type Axle uint8

const (
	AxleFront Axle = iota
	AxleRear
)

func (a Axle) String() string {
	if a == AxleFront {
		return "front"
	}
	return "rear"
}

// Side identifies the left or right wheel of an axle
type Side uint8

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Pose is a position and orientation relative to the chassis
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// SuspensionOverride replaces the axle's rest length and max travel for one wheel
type SuspensionOverride struct {
	RestLength float64 `mapstructure:"rest_length"`
	MaxTravel  float64 `mapstructure:"max_travel"`
}

// WheelConfig is the immutable description of a wheel
type WheelConfig struct {
	Name    string
	Mount   *Pose // nil disables the wheel
	Radius  float64
	Inertia float64 // kg·m², spin axis
	Axle    Axle
	Side    Side
	Powered bool
	Steers  bool

	Suspension *SuspensionOverride // nil uses the axle values
}

// WheelState is the per-tick runtime state, mutated by each pipeline stage in order
type WheelState struct {
	// Suspension
	Grounded        bool
	Compression     float64
	CompressionRate float64
	Length          float64 // current spring length
	ContactPoint    mgl64.Vec3
	ContactNormal   mgl64.Vec3
	Load            float64 // normal force, N, never negative

	// Kinematics
	SteerAngle float64
	Forward    mgl64.Vec3
	Right      mgl64.Vec3
	Vx, Vy     float64 // contact velocity in wheel frame

	// Rotation
	Omega      float64 // rad/s
	OmegaValid bool    // false until the integrator has run once

	// Tire
	SlipRatio float64
	SlipAngle float64
	MuX, MuY  float64

	// Torque/force bookkeeping for the tick
	DriveForce  float64 // requested longitudinal force from the powertrain, N
	BrakeTorque float64 // magnitude, N·m
	Force       mgl64.Vec3
	Fx, Fy      float64
	Utilization float64

	primed bool // compression history is valid
}

// Wheel is one record of the vehicle's wheel arena
type Wheel struct {
	WheelConfig
	WheelState
}

// Valid reports whether the wheel has enough configuration to simulate
func (w *Wheel) Valid() bool {
	return w.Mount != nil && w.Radius > 0
}

// Primed reports whether a previous compression sample exists
func (w *Wheel) Primed() bool { return w.primed }

// SetPrimed marks the compression history valid or invalid
func (w *Wheel) SetPrimed(p bool) { w.primed = p }

// ClearContact resets all per-tick contact and force state, keeping rotation
func (w *Wheel) ClearContact() {
	w.Grounded = false
	w.Compression = 0
	w.CompressionRate = 0
	w.Load = 0
	w.ContactPoint = mgl64.Vec3{}
	w.ContactNormal = mgl64.Vec3{}
	w.SlipRatio = 0
	w.SlipAngle = 0
	w.MuX = 0
	w.MuY = 0
	w.Force = mgl64.Vec3{}
	w.Fx = 0
	w.Fy = 0
	w.Utilization = 0
}

// GroundSpeedOmega returns the angular velocity of a wheel rolling without slip at Vx
func (w *Wheel) GroundSpeedOmega() float64 {
	if w.Radius <= 0 {
		return 0
	}
	return w.Vx / w.Radius
}

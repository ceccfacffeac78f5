package multibody

// BodyID is an opaque handle into the body tree, assigned at topology
// construction and immutable afterwards.
type BodyID int

// Ground is the fixed inertial frame: always at the identity transform with
// zero velocity and acceleration, and the root of every body tree.
const Ground BodyID = 0

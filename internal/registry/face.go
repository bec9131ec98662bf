package registry

import "github.com/go-gl/mathgl/mgl32"

// Face is a cardinal face direction. The numeric order is shared by occlusion masks,
// light border planes and the mesher.
type Face uint8

const (
	FacePosY Face = iota
	FaceNegY
	FacePosX
	FaceNegX
	FacePosZ
	FaceNegZ
)

// AllFaces lists faces in enum order.
var AllFaces = [6]Face{FacePosY, FaceNegY, FacePosX, FaceNegX, FacePosZ, FaceNegZ}

// FaceRole selects which material slot a face uses.
type FaceRole uint8

const (
	RoleAll FaceRole = iota
	RoleTop
	RoleBottom
	RoleSide
)

// Axis is 0 for X, 1 for Y, 2 for Z.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (f Face) Index() int { return int(f) }

func (f Face) Role() FaceRole {
	switch f {
	case FacePosY:
		return RoleTop
	case FaceNegY:
		return RoleBottom
	default:
		return RoleSide
	}
}

func (f Face) Axis() Axis {
	switch f {
	case FacePosX, FaceNegX:
		return AxisX
	case FacePosY, FaceNegY:
		return AxisY
	default:
		return AxisZ
	}
}

func (f Face) IsPositive() bool {
	return f == FacePosX || f == FacePosY || f == FacePosZ
}

// Delta returns the unit step toward the neighbor across this face.
func (f Face) Delta() (int, int, int) {
	switch f {
	case FacePosY:
		return 0, 1, 0
	case FaceNegY:
		return 0, -1, 0
	case FacePosX:
		return 1, 0, 0
	case FaceNegX:
		return -1, 0, 0
	case FacePosZ:
		return 0, 0, 1
	default:
		return 0, 0, -1
	}
}

func (f Face) Normal() mgl32.Vec3 {
	dx, dy, dz := f.Delta()
	return mgl32.Vec3{float32(dx), float32(dy), float32(dz)}
}

func (f Face) Opposite() Face {
	return f ^ 1
}

// FaceFor returns the face on axis with the given orientation.
func FaceFor(axis Axis, positive bool) Face {
	var f Face
	switch axis {
	case AxisX:
		f = FacePosX
	case AxisY:
		f = FacePosY
	default:
		f = FacePosZ
	}
	if !positive {
		f++
	}
	return f
}

func (f Face) String() string {
	switch f {
	case FacePosY:
		return "+Y"
	case FaceNegY:
		return "-Y"
	case FacePosX:
		return "+X"
	case FaceNegX:
		return "-X"
	case FacePosZ:
		return "+Z"
	case FaceNegZ:
		return "-Z"
	}
	return "?"
}

package transform

import (
	"errors"
	"sync/atomic"

	"github.com/EngoEngine/glm"
)

var ErrParentCycle = errors.New("transform: parent would create a cycle")

// stamps is shared by every transform so that a mutation anywhere in a parent
// chain yields a version larger than any seen before.
var stamps atomic.Uint64

// Transform is a position/rotation/scale triple with an optional parent.
// Changes are tracked against the snapshot taken by the last Update.
type Transform struct {
	parent *Transform

	pos   glm.Vec3
	rot   glm.Quat
	scale glm.Vec3

	oldPos   glm.Vec3
	oldRot   glm.Quat
	oldScale glm.Vec3
	updated  bool

	version uint64
}

func New() *Transform {
	return &Transform{
		rot:     glm.QuatIdent(),
		scale:   glm.Vec3{1, 1, 1},
		version: stamps.Add(1),
	}
}

func (t *Transform) touch() { t.version = stamps.Add(1) }

// Version changes whenever t or one of its parents is mutated. Unlike
// HasChanged it is not reset by Update.
func (t *Transform) Version() uint64 {
	v := t.version
	for p := t.parent; p != nil; p = p.parent {
		v = max(v, p.version)
	}
	return v
}

func (t *Transform) Pos() glm.Vec3   { return t.pos }
func (t *Transform) Rot() glm.Quat   { return t.rot }
func (t *Transform) Scale() glm.Vec3 { return t.scale }
func (t *Transform) Parent() *Transform {
	return t.parent
}

func (t *Transform) SetPos(pos glm.Vec3) {
	t.pos = pos
	t.touch()
}

// SetRot stores rot as a unit quaternion. A zero quaternion becomes identity.
func (t *Transform) SetRot(rot glm.Quat) {
	t.rot = rot.Normalized()
	t.touch()
}

func (t *Transform) SetScale(scale glm.Vec3) {
	t.scale = scale
	t.touch()
}

// SetParent attaches t under parent. A nil parent detaches it.
func (t *Transform) SetParent(parent *Transform) error {
	for p := parent; p != nil; p = p.parent {
		if p == t {
			return ErrParentCycle
		}
	}
	t.parent = parent
	t.touch()
	return nil
}

// Translate moves the transform by d in parent space.
func (t *Transform) Translate(d glm.Vec3) {
	t.pos = t.pos.Add(&d)
	t.touch()
}

// Rotate applies a rotation of angle radians around axis on top of the
// current rotation.
func (t *Transform) Rotate(axis glm.Vec3, angle float32) {
	r := glm.QuatRotate(angle, &axis)
	r = r.Mul(&t.rot)
	t.rot = r.Normalized()
	t.touch()
}

// HasChanged reports whether the transform, or any of its parents, differs
// from the state captured by the last Update. A transform that was never
// updated always reports a change.
func (t *Transform) HasChanged() bool {
	if !t.updated {
		return true
	}
	if t.parent != nil && t.parent.HasChanged() {
		return true
	}
	return t.pos != t.oldPos || t.rot != t.oldRot || t.scale != t.oldScale
}

// Update snapshots the local state. Call it once per frame after every
// consumer has seen the change.
func (t *Transform) Update() {
	t.oldPos = t.pos
	t.oldRot = t.rot
	t.oldScale = t.scale
	t.updated = true
}

// Transformation returns the local-to-world matrix: parent * T * R * S.
func (t *Transform) Transformation() glm.Mat4 {
	translation := glm.Translate3D(t.pos[0], t.pos[1], t.pos[2])
	rotation := t.rot.Mat4()
	scale := glm.Scale3D(t.scale[0], t.scale[1], t.scale[2])

	local := rotation.Mul4(&scale)
	local = translation.Mul4(&local)
	if t.parent == nil {
		return local
	}
	parent := t.parent.Transformation()
	return parent.Mul4(&local)
}

// TransformedPos is the position in world space.
func (t *Transform) TransformedPos() glm.Vec3 {
	if t.parent == nil {
		return t.pos
	}
	parent := t.parent.Transformation()
	return MulPoint(&parent, t.pos)
}

// TransformedRot is the rotation in world space.
func (t *Transform) TransformedRot() glm.Quat {
	if t.parent == nil {
		return t.rot
	}
	parent := t.parent.TransformedRot()
	return parent.Mul(&t.rot)
}

// Forward is the world space -Z axis of the transform.
func (t *Transform) Forward() glm.Vec3 { return t.axis(glm.Vec3{0, 0, -1}) }
func (t *Transform) Right() glm.Vec3   { return t.axis(glm.Vec3{1, 0, 0}) }
func (t *Transform) Up() glm.Vec3      { return t.axis(glm.Vec3{0, 1, 0}) }

func (t *Transform) axis(v glm.Vec3) glm.Vec3 {
	rot := t.TransformedRot()
	return rot.Rotate(&v)
}

// MulPoint transforms p by m as a point (w = 1) and divides by the
// resulting w when it is not 1.
func MulPoint(m *glm.Mat4, p glm.Vec3) glm.Vec3 {
	v := p.Vec4(1)
	r := m.Mul4x1(&v)
	if r[3] != 0 && r[3] != 1 {
		r = r.Mul(1 / r[3])
	}
	return r.Vec3()
}

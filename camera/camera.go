// Package camera turns a transform and a projection into the
// view-projection matrix the renderer uploads each frame.
package camera

import (
	"errors"

	"go_engine/transform"

	"github.com/EngoEngine/glm"
)

// ErrInvalidLens is wrapped by every lens validation failure.
var ErrInvalidLens = errors.New("camera: invalid lens")

// Lens is the camera specific parameter set a projection is built from.
type Lens interface {
	Matrix() glm.Mat4
	Validate() error
}

// Projector is implemented by the concrete camera kinds.
type Projector interface {
	CalculateProjection(lens Lens) (glm.Mat4, error)
	AdjustToViewport(width, height int)
	ViewProjection() glm.Mat4
	Transform() *transform.Transform
}

// Camera is the shared part of every camera kind. It caches the
// view-projection matrix until the transform moves or the projection is
// replaced.
type Camera struct {
	projection     glm.Mat4
	viewProjection glm.Mat4
	cached         bool
	// version of the transform the cache was built from
	version   uint64
	transform *transform.Transform
}

// New returns a camera with the given projection and an identity transform.
func New(projection glm.Mat4) *Camera {
	return &Camera{
		projection: projection,
		transform:  transform.New(),
	}
}

// ViewProjection returns the cached matrix, rebuilding it when there is no
// cache yet or the transform has changed since the cache was built. Calling
// Update on the transform does not hide a change from the camera.
func (c *Camera) ViewProjection() glm.Mat4 {
	if !c.cached || c.version != c.transform.Version() {
		c.CalculateViewMatrix()
	}
	return c.viewProjection
}

// CalculateViewMatrix rebuilds projection * rotation^-1 * translation^-1 and
// stores it as the cached view-projection.
func (c *Camera) CalculateViewMatrix() glm.Mat4 {
	c.version = c.transform.Version()
	view := c.View()
	c.viewProjection = c.projection.Mul4(&view)
	c.cached = true
	return c.viewProjection
}

// View is the world-to-camera matrix without the projection.
func (c *Camera) View() glm.Mat4 {
	world := c.transform.TransformedRot()
	rot := world.Conjugated()
	rotation := rot.Mat4()
	translation := c.TranslationMatrix()
	return rotation.Mul4(&translation)
}

// TranslationMatrix moves the world by the negated camera position.
func (c *Camera) TranslationMatrix() glm.Mat4 {
	pos := c.transform.TransformedPos()
	pos = pos.Mul(-1)
	return glm.Translate3D(pos[0], pos[1], pos[2])
}

// Transform returns the camera's own transform, not a copy.
func (c *Camera) Transform() *transform.Transform {
	return c.transform
}

// Projection returns the current projection matrix.
func (c *Camera) Projection() glm.Mat4 {
	return c.projection
}

// SetProjection replaces the projection and drops the cached matrix.
func (c *Camera) SetProjection(projection glm.Mat4) {
	c.projection = projection
	c.cached = false
}

var (
	_ Projector = (*Perspective)(nil)
	_ Projector = (*Orthographic)(nil)
)

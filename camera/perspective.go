package camera

import (
	"fmt"
	"math"

	"github.com/EngoEngine/glm"
)

// PerspectiveLens describes a symmetric frustum. FovY is in radians.
type PerspectiveLens struct {
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32
}

func (l PerspectiveLens) Matrix() glm.Mat4 {
	return glm.Perspective(l.FovY, l.Aspect, l.Near, l.Far)
}

// Validate rejects non-finite values along with out of range ones. The
// comparisons are written so that NaN fails them.
func (l PerspectiveLens) Validate() error {
	switch {
	case !finite(l.FovY, l.Aspect, l.Near, l.Far):
		return fmt.Errorf("%w: non-finite value in %+v", ErrInvalidLens, l)
	case !(l.FovY > 0 && l.FovY < math.Pi):
		return fmt.Errorf("%w: fov %v out of (0, pi)", ErrInvalidLens, l.FovY)
	case !(l.Aspect > 0):
		return fmt.Errorf("%w: aspect %v", ErrInvalidLens, l.Aspect)
	case !(l.Near > 0 && l.Far > l.Near):
		return fmt.Errorf("%w: clip planes near=%v far=%v", ErrInvalidLens, l.Near, l.Far)
	}
	return nil
}

func finite(values ...float32) bool {
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

type Perspective struct {
	*Camera
	lens PerspectiveLens
}

func NewPerspective(fovY, aspect, near, far float32) (*Perspective, error) {
	p := &Perspective{lens: PerspectiveLens{FovY: fovY, Aspect: aspect, Near: near, Far: far}}
	projection, err := p.CalculateProjection(p.lens)
	if err != nil {
		return nil, err
	}
	p.Camera = New(projection)
	return p, nil
}

func (p *Perspective) Lens() PerspectiveLens { return p.lens }

func (p *Perspective) CalculateProjection(lens Lens) (glm.Mat4, error) {
	if _, ok := lens.(PerspectiveLens); !ok {
		return glm.Mat4{}, fmt.Errorf("%w: %T is not a perspective lens", ErrInvalidLens, lens)
	}
	if err := lens.Validate(); err != nil {
		return glm.Mat4{}, err
	}
	return lens.Matrix(), nil
}

// AdjustToViewport follows the window's aspect ratio. Zero sized viewports
// (a minimised window) are ignored.
func (p *Perspective) AdjustToViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	lens := p.lens
	lens.Aspect = float32(width) / float32(height)
	projection, err := p.CalculateProjection(lens)
	if err != nil {
		return
	}
	p.lens = lens
	p.SetProjection(projection)
}

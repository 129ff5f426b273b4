package camera

import (
	"fmt"

	"github.com/EngoEngine/glm"
)

type OrthographicLens struct {
	Left, Right float32
	Bottom, Top float32
	Near, Far   float32
}

func (l OrthographicLens) Matrix() glm.Mat4 {
	return glm.Ortho(l.Left, l.Right, l.Bottom, l.Top, l.Near, l.Far)
}

func (l OrthographicLens) Validate() error {
	if !finite(l.Left, l.Right, l.Bottom, l.Top, l.Near, l.Far) {
		return fmt.Errorf("%w: non-finite value in %+v", ErrInvalidLens, l)
	}
	if l.Left == l.Right || l.Bottom == l.Top || l.Near == l.Far {
		return fmt.Errorf("%w: degenerate box %+v", ErrInvalidLens, l)
	}
	return nil
}

type Orthographic struct {
	*Camera
	lens OrthographicLens
}

func NewOrthographic(lens OrthographicLens) (*Orthographic, error) {
	o := &Orthographic{lens: lens}
	projection, err := o.CalculateProjection(lens)
	if err != nil {
		return nil, err
	}
	o.Camera = New(projection)
	return o, nil
}

func (o *Orthographic) Lens() OrthographicLens { return o.lens }

func (o *Orthographic) CalculateProjection(lens Lens) (glm.Mat4, error) {
	if _, ok := lens.(OrthographicLens); !ok {
		return glm.Mat4{}, fmt.Errorf("%w: %T is not an orthographic lens", ErrInvalidLens, lens)
	}
	if err := lens.Validate(); err != nil {
		return glm.Mat4{}, err
	}
	return lens.Matrix(), nil
}

// AdjustToViewport keeps the vertical extent and widens or narrows the box
// around its horizontal centre to match width/height.
func (o *Orthographic) AdjustToViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	lens := o.lens
	halfHeight := (lens.Top - lens.Bottom) / 2
	centre := (lens.Left + lens.Right) / 2
	halfWidth := halfHeight * float32(width) / float32(height)
	lens.Left = centre - halfWidth
	lens.Right = centre + halfWidth
	projection, err := o.CalculateProjection(lens)
	if err != nil {
		return
	}
	o.lens = lens
	o.SetProjection(projection)
}

package camera

import (
	"errors"
	"math"
	"testing"

	"go_engine/transform"

	"github.com/EngoEngine/glm"
)

const eps = 1e-5

func matApprox(a, b glm.Mat4) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func vecApprox(a, b glm.Vec3) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func TestIdentityTransformViewProjectionIsProjection(t *testing.T) {
	projection := glm.Perspective(math.Pi/4, 1.5, 0.1, 100)
	c := New(projection)

	if got := c.ViewProjection(); !matApprox(got, projection) {
		t.Errorf("Expected view-projection %v, got %v", projection, got)
	}
}

func TestTranslationMatrixNegatesPosition(t *testing.T) {
	c := New(glm.Ident4())
	c.Transform().SetPos(glm.Vec3{1, 2, 3})

	m := c.TranslationMatrix()
	if m[12] != -1 || m[13] != -2 || m[14] != -3 {
		t.Errorf("Expected translation (-1, -2, -3), got (%v, %v, %v)", m[12], m[13], m[14])
	}

	vp := c.ViewProjection()
	if got := transform.MulPoint(&vp, glm.Vec3{1, 2, 3}); !vecApprox(got, glm.Vec3{}) {
		t.Errorf("Expected camera position to map to origin, got %v", got)
	}
}

func TestRotatedCameraLooksDownItsForward(t *testing.T) {
	c := New(glm.Ident4())
	c.Transform().Rotate(glm.Vec3{0, 1, 0}, math.Pi/2)

	if fwd := c.Transform().Forward(); !vecApprox(fwd, glm.Vec3{-1, 0, 0}) {
		t.Fatalf("Expected forward (-1, 0, 0), got %v", fwd)
	}

	view := c.View()
	got := transform.MulPoint(&view, glm.Vec3{-5, 0, 0})
	if !vecApprox(got, glm.Vec3{0, 0, -5}) {
		t.Errorf("Expected point ahead of camera at (0, 0, -5) in view space, got %v", got)
	}
}

func TestViewProjectionComposition(t *testing.T) {
	projection := glm.Perspective(math.Pi/3, 1, 0.5, 50)
	c := New(projection)
	c.Transform().SetPos(glm.Vec3{4, -2, 7})
	c.Transform().Rotate(glm.Vec3{1, 0, 0}, 0.3)

	world := c.Transform().TransformedRot()
	rot := world.Conjugated()
	rotation := rot.Mat4()
	translation := glm.Translate3D(-4, 2, -7)
	view := rotation.Mul4(&translation)
	want := projection.Mul4(&view)

	if got := c.ViewProjection(); !matApprox(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestViewProjectionCache(t *testing.T) {
	c := New(glm.Ident4())
	first := c.ViewProjection()
	c.Transform().Update()

	if got := c.ViewProjection(); got != first {
		t.Errorf("Expected cached matrix %v, got %v", first, got)
	}

	c.Transform().Translate(glm.Vec3{0, 0, 5})
	moved := c.ViewProjection()
	if moved == first {
		t.Error("Expected view-projection to change after moving the transform")
	}
	if moved[14] != -5 {
		t.Errorf("Expected z translation -5, got %v", moved[14])
	}
	c.Transform().Update()

	scale := glm.Scale3D(2, 2, 2)
	c.SetProjection(scale)
	if got := c.ViewProjection(); got[0] != 2 {
		t.Errorf("Expected projection change to invalidate the cache, got %v", got)
	}
}

func TestViewProjectionSeesChangeAfterUpdate(t *testing.T) {
	c := New(glm.Ident4())
	c.ViewProjection()
	c.Transform().Update()

	c.Transform().SetPos(glm.Vec3{0, 0, 5})
	c.Transform().Update()
	if c.Transform().HasChanged() {
		t.Fatal("Expected Update to clear HasChanged")
	}
	if got := c.ViewProjection(); got[14] != -5 {
		t.Errorf("Expected z translation -5 after Update, got %v", got[14])
	}

	rig := transform.New()
	if err := c.Transform().SetParent(rig); err != nil {
		t.Fatal(err)
	}
	c.ViewProjection()
	rig.Translate(glm.Vec3{0, 0, 1})
	rig.Update()
	c.Transform().Update()
	if got := c.ViewProjection(); got[14] != -6 {
		t.Errorf("Expected parent move to show after Update, got z translation %v", got[14])
	}
}

func TestParentedCameraUsesWorldPosition(t *testing.T) {
	c := New(glm.Ident4())
	rig := transform.New()
	rig.SetPos(glm.Vec3{0, 0, 10})
	if err := c.Transform().SetParent(rig); err != nil {
		t.Fatal(err)
	}
	c.Transform().SetPos(glm.Vec3{1, 0, 0})

	m := c.TranslationMatrix()
	if m[12] != -1 || m[14] != -10 {
		t.Errorf("Expected translation (-1, 0, -10), got (%v, %v, %v)", m[12], m[13], m[14])
	}

	c.ViewProjection()
	c.Transform().Update()
	rig.Update()
	rig.Translate(glm.Vec3{0, 1, 0})
	if got := c.ViewProjection(); got[13] != -1 {
		t.Errorf("Expected parent movement to refresh the cache, got y translation %v", got[13])
	}
}

func TestNewPerspective(t *testing.T) {
	p, err := NewPerspective(math.Pi/2, 2, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	proj := p.Projection()
	// f = 1/tan(fov/2) = 1
	if math.Abs(float64(proj[5]-1)) > eps {
		t.Errorf("Expected m[5] = 1, got %v", proj[5])
	}
	if math.Abs(float64(proj[0]-0.5)) > eps {
		t.Errorf("Expected m[0] = 0.5, got %v", proj[0])
	}
	if proj[11] != -1 {
		t.Errorf("Expected m[11] = -1, got %v", proj[11])
	}
}

func TestNewPerspectiveInvalid(t *testing.T) {
	tests := []struct {
		name                   string
		fov, aspect, near, far float32
	}{
		{"zero fov", 0, 1, 0.1, 10},
		{"fov too wide", math.Pi, 1, 0.1, 10},
		{"zero aspect", 1, 0, 0.1, 10},
		{"negative near", 1, 1, -1, 10},
		{"far before near", 1, 1, 10, 1},
		{"nan fov", float32(math.NaN()), 1, 0.1, 100},
		{"nan aspect", 0.7, float32(math.NaN()), 0.1, 100},
		{"nan near", 0.7, 1, float32(math.NaN()), 100},
		{"nan far", 0.7, 1, 0.1, float32(math.NaN())},
		{"infinite far", 0.7, 1, 0.1, float32(math.Inf(1))},
		{"infinite aspect", 0.7, float32(math.Inf(1)), 0.1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPerspective(tt.fov, tt.aspect, tt.near, tt.far)
			if !errors.Is(err, ErrInvalidLens) {
				t.Errorf("Expected ErrInvalidLens, got %v", err)
			}
		})
	}
}

func TestPerspectiveAdjustToViewport(t *testing.T) {
	p, err := NewPerspective(math.Pi/2, 1, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	before := p.ViewProjection()
	p.Transform().Update()

	p.AdjustToViewport(800, 400)
	if p.Lens().Aspect != 2 {
		t.Errorf("Expected aspect 2, got %v", p.Lens().Aspect)
	}
	after := p.ViewProjection()
	if after == before {
		t.Error("Expected view-projection to follow the new aspect ratio")
	}
	if math.Abs(float64(after[0]-0.5)) > eps {
		t.Errorf("Expected m[0] = 0.5, got %v", after[0])
	}

	p.AdjustToViewport(0, 0)
	if p.Lens().Aspect != 2 {
		t.Errorf("Expected zero viewport to be ignored, aspect is %v", p.Lens().Aspect)
	}
}

func TestOrthographicAdjustToViewport(t *testing.T) {
	o, err := NewOrthographic(OrthographicLens{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: 0.1, Far: 10})
	if err != nil {
		t.Fatal(err)
	}

	o.AdjustToViewport(200, 100)
	lens := o.Lens()
	if lens.Left != -2 || lens.Right != 2 {
		t.Errorf("Expected horizontal extent [-2, 2], got [%v, %v]", lens.Left, lens.Right)
	}
	if lens.Bottom != -1 || lens.Top != 1 {
		t.Errorf("Expected vertical extent unchanged, got [%v, %v]", lens.Bottom, lens.Top)
	}
	if want := lens.Matrix(); !matApprox(o.Projection(), want) {
		t.Errorf("Expected projection %v, got %v", want, o.Projection())
	}

	o.AdjustToViewport(-5, 100)
	if o.Lens() != lens {
		t.Errorf("Expected negative viewport to be ignored, got %+v", o.Lens())
	}
}

func TestOrthographicInvalid(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	tests := []struct {
		name string
		lens OrthographicLens
	}{
		{"zero width", OrthographicLens{Left: 1, Right: 1, Bottom: -1, Top: 1, Near: 0, Far: 1}},
		{"nan left", OrthographicLens{Left: nan, Right: 1, Bottom: -1, Top: 1, Near: 0, Far: 1}},
		{"nan top", OrthographicLens{Left: -1, Right: 1, Bottom: -1, Top: nan, Near: 0, Far: 1}},
		{"infinite far", OrthographicLens{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: 0, Far: inf}},
		{"negative infinite near", OrthographicLens{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: -inf, Far: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrthographic(tt.lens)
			if !errors.Is(err, ErrInvalidLens) {
				t.Errorf("Expected ErrInvalidLens, got %v", err)
			}
		})
	}
}

func TestCalculateProjectionRejectsForeignLens(t *testing.T) {
	p, err := NewPerspective(1, 1, 0.1, 10)
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.CalculateProjection(OrthographicLens{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: 0, Far: 1})
	if !errors.Is(err, ErrInvalidLens) {
		t.Errorf("Expected ErrInvalidLens, got %v", err)
	}
}

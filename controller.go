package main

import (
	"math"

	"go_engine/transform"

	"github.com/EngoEngine/glm"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	moveSpeed   = 10
	lookDivisor = 1000
	maxPitch    = math.Pi/2 - 0.01
)

// flyController steers a camera transform with WASD/QE and mouse look.
type flyController struct {
	keys       map[glfw.Key]bool
	yaw, pitch float32
}

func newFlyController() *flyController {
	return &flyController{keys: map[glfw.Key]bool{}}
}

func (f *flyController) key(key glfw.Key, action glfw.Action) {
	if action == glfw.Press || action == glfw.Repeat {
		f.keys[key] = true
	}
	if action == glfw.Release {
		delete(f.keys, key)
	}
}

// look takes the cursor offset from the window centre.
func (f *flyController) look(dx, dy float32) {
	f.yaw -= dx / lookDivisor
	f.pitch -= dy / lookDivisor
	f.pitch = float32(math.Max(-maxPitch, math.Min(maxPitch, float64(f.pitch))))
}

func (f *flyController) step(t *transform.Transform, dt float32) {
	rotx := glm.QuatRotate(f.pitch, &glm.Vec3{1, 0, 0})
	roty := glm.QuatRotate(f.yaw, &glm.Vec3{0, 1, 0})
	rot := roty.Mul(&rotx)
	t.SetRot(rot)

	move := glm.Vec3{0, 0, 0}
	if f.keys[glfw.KeyW] {
		move = move.Add(&glm.Vec3{0, 0, -1})
	}
	if f.keys[glfw.KeyS] {
		move = move.Add(&glm.Vec3{0, 0, 1})
	}
	if f.keys[glfw.KeyA] {
		move = move.Add(&glm.Vec3{-1, 0, 0})
	}
	if f.keys[glfw.KeyD] {
		move = move.Add(&glm.Vec3{1, 0, 0})
	}
	if f.keys[glfw.KeyQ] {
		move = move.Add(&glm.Vec3{0, -1, 0})
	}
	if f.keys[glfw.KeyE] {
		move = move.Add(&glm.Vec3{0, 1, 0})
	}
	move = move.Mul(dt * moveSpeed)
	move = rot.Rotate(&move)
	t.Translate(move)
}

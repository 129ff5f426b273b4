package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"go_engine/client"
	"go_engine/shared"

	"github.com/EngoEngine/glm"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

var (
	addr = flag.String("addr", "", "pose server address, empty to run offline")
	grid = flag.Int("grid", 20, "cubes per side of the scenery grid")
)

var forceFallbackAdapter = os.Getenv("WGPU_FORCE_FALLBACK_ADAPTER") == "1"

const publishInterval = time.Second / 30

func init() {
	runtime.LockOSThread()

	switch os.Getenv("WGPU_LOG_LEVEL") {
	case "OFF":
		wgpu.SetLogLevel(wgpu.LogLevel_Off)
	case "ERROR":
		wgpu.SetLogLevel(wgpu.LogLevel_Error)
	case "WARN":
		wgpu.SetLogLevel(wgpu.LogLevel_Warn)
	case "INFO":
		wgpu.SetLogLevel(wgpu.LogLevel_Info)
	case "DEBUG":
		wgpu.SetLogLevel(wgpu.LogLevel_Debug)
	case "TRACE":
		wgpu.SetLogLevel(wgpu.LogLevel_Trace)
	}
}

// sceneryModels lays out an n*n floor of cubes around the origin.
func sceneryModels(n int) []glm.Mat4 {
	models := make([]glm.Mat4, 0, n*n)
	scale := glm.Scale3D(0.5, 0.5, 0.5)
	for x := 0; x < n; x++ {
		for z := 0; z < n; z++ {
			t := glm.Translate3D(float32(x-n/2)*3, -3, float32(z-n/2)*3)
			models = append(models, t.Mul4(&scale))
		}
	}
	return models
}

func peerModels(peers map[uint32]shared.CameraState) []glm.Mat4 {
	models := make([]glm.Mat4, 0, len(peers))
	scale := glm.Scale3D(0.3, 0.3, 0.6)
	for _, p := range peers {
		rotation := p.Rotation.Mat4()
		translation := glm.Translate3D(p.Position[0], p.Position[1], p.Position[2])
		m := rotation.Mul4(&scale)
		models = append(models, translation.Mul4(&m))
	}
	return models
}

func main() {
	flag.Parse()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(640, 480, "go_engine viewer", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	s, err := InitState(window)
	if err != nil {
		panic(err)
	}
	defer s.Destroy()

	n := *grid
	scenery, err := s.AddRenderer("Scenery", n*n)
	if err != nil {
		panic(err)
	}
	scenery.SetInstances(sceneryModels(n))

	peersRenderer, err := s.AddRenderer("Peers", 256)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		peers map[uint32]shared.CameraState
	)
	var poseSync *client.Client
	if *addr != "" {
		poseSync, err = client.Dial(ctx, *addr)
		if err != nil {
			log.Println("running offline:", err)
		} else {
			log.Printf("joined as %d", poseSync.Id())
			go func() {
				err := poseSync.Run(ctx, func(p map[uint32]shared.CameraState) {
					mu.Lock()
					peers = p
					mu.Unlock()
				})
				if err != nil {
					log.Println("pose sync stopped:", err)
				}
			}()
			defer poseSync.Leave()
		}
	}

	controller := newFlyController()
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		controller.look(float32(xpos)-float32(s.config.Width)/2, float32(ypos)-float32(s.config.Height)/2)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
		controller.key(key, action)
	})
	window.SetSizeCallback(func(w *glfw.Window, width, height int) {
		s.Resize(width, height)
	})

	avg := time.Duration(0)
	frames := 0
	fpsTimer := time.NewTicker(time.Second)
	defer fpsTimer.Stop()
	lastPublish := time.Time{}
	lastTime := time.Now()

	for !window.ShouldClose() {
		frames++
		frame := time.Now()
		dt := float32(frame.Sub(lastTime).Seconds())
		lastTime = frame
		glfw.PollEvents()

		cam := s.camera.Transform()
		controller.step(cam, dt)

		if poseSync != nil && time.Since(lastPublish) >= publishInterval {
			if err := poseSync.Publish(cam.Pos(), cam.Rot()); err != nil {
				log.Println("publish:", err)
			}
			lastPublish = time.Now()
		}
		mu.Lock()
		peersRenderer.SetInstances(peerModels(peers))
		mu.Unlock()

		err := s.Render()
		window.SetCursorPos(float64(s.config.Width)/2, float64(s.config.Height)/2)
		if err != nil {
			fmt.Println("error occured while rendering:", err)

			errstr := err.Error()
			switch {
			case strings.Contains(errstr, "Surface timed out"): // do nothing
			case strings.Contains(errstr, "Surface is outdated"): // do nothing
			case strings.Contains(errstr, "Surface was lost"): // do nothing
			default:
				panic(err)
			}
		}
		cam.Update()
		avg += time.Since(frame)

		select {
		case <-fpsTimer.C:
			if frames > 0 {
				fmt.Println("FPS:", float32(time.Second)/(float32(avg)/float32(frames)))
			}
			frames = 0
			avg = 0
		default:
		}
	}
}

package ws

import (
	"bytes"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"

	"go_engine/camera"

	"github.com/EngoEngine/glm"
	"github.com/gorilla/mux"
)

type ViewProjectionResponse struct {
	Id             uint32                 `json:"id"`
	Lens           camera.PerspectiveLens `json:"lens"`
	ViewProjection glm.Mat4               `json:"viewProjection"`
}

func (s *Server) listCameras(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// viewProjection builds a perspective camera at the stored pose and returns
// its view-projection matrix. Lens values default to the viewer's.
func (s *Server) viewProjection(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pose, ok := s.pose(id)
	if !ok {
		http.Error(w, "no such camera", http.StatusNotFound)
		return
	}

	lens := camera.PerspectiveLens{FovY: math.Pi / 4, Aspect: 1, Near: 0.1, Far: 1_000}
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float32
	}{
		{"fov", &lens.FovY},
		{"aspect", &lens.Aspect},
		{"near", &lens.Near},
		{"far", &lens.Far},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			http.Error(w, p.name+": "+err.Error(), http.StatusBadRequest)
			return
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			http.Error(w, p.name+": must be finite", http.StatusBadRequest)
			return
		}
		*p.dst = float32(f)
	}

	cam, err := camera.NewPerspective(lens.FovY, lens.Aspect, lens.Near, lens.Far)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cam.Transform().SetPos(pose.Position)
	cam.Transform().SetRot(pose.Rotation)
	writeJSON(w, http.StatusOK, ViewProjectionResponse{
		Id:             pose.Id,
		Lens:           cam.Lens(),
		ViewProjection: cam.ViewProjection(),
	})
}

// writeJSON encodes v before touching the response so an encoding failure
// (a NaN in a pose, say) becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Println("encode response:", err)
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

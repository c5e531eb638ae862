package server

import (
	"net/http"
	"strconv"

	"github.com/df07/go-curve-kernels/pkg/bvh"
	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/geometry"
	"github.com/df07/go-curve-kernels/pkg/intersect"
	"github.com/df07/go-curve-kernels/pkg/renderer"
	"github.com/df07/go-curve-kernels/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	GeometryType string                 `json:"geometryType"`
	GeomID       uint32                 `json:"geomID"`
	PrimID       uint32                 `json:"primID"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	U            float64                `json:"u"`
	V            float64                `json:"v"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

// inspectPixel casts a ray through the center of a pixel and returns the closest hit
func (s *Server) inspectPixel(sc *scene.Scene, req *RenderRequest, pixelX, pixelY int) (core.RayHit, error) {
	accel, err := bvh.Build(sc.Geometry, s.vi, logger)
	if err != nil {
		return core.RayHit{}, err
	}

	camera := renderer.NewCamera(sc.CameraConfig)
	ray := camera.GetPixelRay(pixelX, pixelY, req.Width, req.Height)
	ray.Time = req.Time

	rh := core.NewRayHit(ray)
	accel.Intersect(intersect.NewContext(sc.Geometry), &rh)
	return rh, nil
}

// extractGeometryInfo describes the primitive that was hit
func extractGeometryInfo(g geometry.Geometry, primID int, time float64) map[string]interface{} {
	properties := map[string]interface{}{
		"timeSteps":  g.NumTimeSteps(),
		"primitives": g.NumPrimitives(),
	}

	switch geom := g.(type) {
	case *geometry.Curves:
		bezier, ok := geom.BezierAt(primID, time)
		if !ok {
			break
		}
		var controlPoints [4][4]float64
		for i, p := range bezier.P {
			controlPoints[i] = [4]float64{p.P.X, p.P.Y, p.P.Z, p.R}
		}
		properties["bezier"] = controlPoints

	case *geometry.Lines:
		v0, v1, ok := geom.SegmentAt(primID, time)
		if !ok {
			break
		}
		properties["v0"] = [4]float64{v0.P.X, v0.P.Y, v0.P.Z, v0.R}
		properties["v1"] = [4]float64{v1.P.X, v1.P.Y, v1.P.Z, v1.R}
		flags := geom.SegmentFlags(primID)
		properties["leftNeighbor"] = flags&geometry.NeighborLeft != 0
		properties["rightNeighbor"] = flags&geometry.NeighborRight != 0

	case *geometry.Points:
		p, n, ok := geom.PointAt(primID, time)
		if !ok {
			break
		}
		properties["center"] = [3]float64{p.P.X, p.P.Y, p.P.Z}
		properties["radius"] = p.R
		if geom.Type().Base() == geometry.TypeOrientedDiscPoint {
			properties["discNormal"] = [3]float64{n.X, n.Y, n.Z}
		}
	}
	return properties
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}

	sc, err := s.loadScene(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	rh, err := s.inspectPixel(sc, req, pixelX, pixelY)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !rh.Hit.Valid() {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	g := sc.Geometry.Get(rh.Hit.GeomID)
	point := rh.Ray.At(rh.Ray.TFar)
	normal := rh.Hit.Ng.Normalize()
	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		GeometryType: g.Type().String(),
		GeomID:       rh.Hit.GeomID,
		PrimID:       rh.Hit.PrimID,
		Point:        [3]float64{point.X, point.Y, point.Z},
		Normal:       [3]float64{normal.X, normal.Y, normal.Z},
		Distance:     rh.Ray.TFar,
		U:            rh.Hit.U,
		V:            rh.Hit.V,
		FrontFace:    normal.Dot(rh.Ray.Direction) < 0,
		Properties:   extractGeometryInfo(g, int(rh.Hit.PrimID), rh.Ray.Time),
	})
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chazu/brep/pkg/solid"
	"github.com/chazu/brep/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to faces.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the JSON mesh format handed to an external viewer.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	FaceName string    `json:"faceName"`
	Color    string    `json:"color"`
}

func meshData(s *solid.Solid) []MeshData {
	meshes := tessellate.Tessellate(s)
	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			FaceName: m.FaceName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out
}

func writeMeshes(path string, s *solid.Solid) error {
	data, err := json.Marshal(meshData(s))
	if err != nil {
		return fmt.Errorf("encode meshes: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write meshes: %w", err)
	}
	return nil
}

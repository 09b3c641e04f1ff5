// Package solid implements the triangulated solid model: authored vertex
// and triangle buffers with per-triangle face IDs, named faces, metadata,
// booleans that keep face names stable, and the mesh cleanup passes the
// fillet and chamfer builders rely on.
//
// Face identity is carried by IDs reserved from the engine's allocator. A
// face name maps to exactly one canonical ID; IDs never collide between
// solids sharing an allocator, so after a boolean every triangle can still
// be traced to the face it came from.
package solid

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/brep/pkg/kernel"
)

// AuxEdge is a named helper polyline that is not part of the surface.
type AuxEdge struct {
	Name       string
	Points     []v3.Vec
	Closed     bool
	Centerline bool
	// WorldSpace marks points that are not affected by Transform.
	WorldSpace bool
}

// AuxEdgeOptions controls AddAuxEdge. A nil Centerline is inferred from the
// name.
type AuxEdgeOptions struct {
	Closed     bool
	Centerline *bool
	WorldSpace bool
}

// Solid is a triangulated solid with named faces. A Solid is not safe for
// concurrent mutation.
type Solid struct {
	eng kernel.Engine

	vertices  []v3.Vec
	triangles [][3]uint32
	faceIDs   []uint32

	idToFace map[uint32]string
	faceToID map[string]uint32
	// retired maps IDs folded away by a collapse pass to their canonical
	// ID, for readbacks of handles that still carry them.
	retired map[uint32]uint32

	faceMeta map[string]*Metadata
	edgeMeta map[string]*Metadata
	auxEdges []AuxEdge

	vertexIndex map[v3.Vec]uint32

	handle kernel.Manifold
	dirty  bool
}

// New creates an empty solid.
func New(opts ...Option) *Solid {
	o := applyOptions(opts)
	return newSolid(o.engine)
}

func newSolid(eng kernel.Engine) *Solid {
	return &Solid{
		eng:         eng,
		idToFace:    make(map[uint32]string),
		faceToID:    make(map[string]uint32),
		retired:     make(map[uint32]uint32),
		faceMeta:    make(map[string]*Metadata),
		edgeMeta:    make(map[string]*Metadata),
		vertexIndex: make(map[v3.Vec]uint32),
	}
}

// Engine returns the engine the solid builds against.
func (s *Solid) Engine() kernel.Engine {
	return s.eng
}

// Dirty reports whether the authored buffers are ahead of the engine handle.
func (s *Solid) Dirty() bool {
	return s.dirty || s.handle == nil
}

// faceIDFor returns the ID of name, reserving one on first use.
func (s *Solid) faceIDFor(name string) uint32 {
	if id, ok := s.faceToID[name]; ok {
		return id
	}
	id := s.eng.ReserveIDs(1)
	s.faceToID[name] = id
	s.idToFace[id] = name
	return id
}

func (s *Solid) addVertex(p v3.Vec) uint32 {
	if i, ok := s.vertexIndex[p]; ok {
		return i
	}
	i := uint32(len(s.vertices))
	s.vertices = append(s.vertices, p)
	s.vertexIndex[p] = i
	return i
}

// AddTriangle appends triangle abc to face. Vertices with identical
// coordinates are shared. Winding is taken as given: counter-clockwise
// seen from outside.
func (s *Solid) AddTriangle(face string, a, b, c v3.Vec) error {
	for _, p := range [3]v3.Vec{a, b, c} {
		if !kernel.Finite(p) {
			return &AuthoringError{Op: "add triangle", Name: face, Err: fmt.Errorf("%w: %v", ErrNonFinite, p)}
		}
	}
	if a == b || b == c || a == c {
		return &AuthoringError{Op: "add triangle", Name: face, Err: ErrDegenerate}
	}
	id := s.faceIDFor(face)
	s.triangles = append(s.triangles, [3]uint32{s.addVertex(a), s.addVertex(b), s.addVertex(c)})
	s.faceIDs = append(s.faceIDs, id)
	s.dirty = true
	return nil
}

// AddQuad appends abcd as two triangles.
func (s *Solid) AddQuad(face string, a, b, c, d v3.Vec) error {
	if err := s.AddTriangle(face, a, b, c); err != nil {
		return err
	}
	return s.AddTriangle(face, a, c, d)
}

// AddAuxEdge attaches a helper polyline. A name containing "centerline"
// implies the centerline flag unless opts sets it.
func (s *Solid) AddAuxEdge(name string, points []v3.Vec, opts AuxEdgeOptions) error {
	for _, p := range points {
		if !kernel.Finite(p) {
			return &AuthoringError{Op: "add aux edge", Name: name, Err: fmt.Errorf("%w: %v", ErrNonFinite, p)}
		}
	}
	centerline := strings.Contains(strings.ToLower(name), "centerline")
	if opts.Centerline != nil {
		centerline = *opts.Centerline
	}
	s.auxEdges = append(s.auxEdges, AuxEdge{
		Name:       name,
		Points:     slices.Clone(points),
		Closed:     opts.Closed,
		Centerline: centerline,
		WorldSpace: opts.WorldSpace,
	})
	return nil
}

// AddCenterline attaches a polyline flagged as a centerline.
func (s *Solid) AddCenterline(name string, points []v3.Vec, closed bool) error {
	return s.AddAuxEdge(name, points, AuxEdgeOptions{Closed: closed, Centerline: lo.ToPtr(true)})
}

// AuxEdges returns a copy of the auxiliary edges.
func (s *Solid) AuxEdges() []AuxEdge {
	return lo.Map(s.auxEdges, func(e AuxEdge, _ int) AuxEdge {
		e.Points = slices.Clone(e.Points)
		return e
	})
}

// FaceID returns the canonical ID of a face.
func (s *Solid) FaceID(name string) (uint32, bool) {
	id, ok := s.faceToID[name]
	return id, ok
}

// FaceName returns the name of a face ID, following retired IDs.
func (s *Solid) FaceName(id uint32) (string, bool) {
	name, ok := s.idToFace[s.canonical(id)]
	return name, ok
}

// FaceIDs returns the set of canonical IDs in use.
func (s *Solid) FaceIDs() []uint32 {
	ids := lo.Keys(s.idToFace)
	slices.Sort(ids)
	return ids
}

// FaceMetadata returns a copy of a face's metadata.
func (s *Solid) FaceMetadata(name string) (*Metadata, bool) {
	m, ok := s.faceMeta[name]
	return m.Clone(), ok
}

// SetFaceMetadata stores a copy of m for face name.
func (s *Solid) SetFaceMetadata(name string, m *Metadata) {
	s.faceMeta[name] = m.Clone()
}

// EdgeMetadata returns a copy of an edge's metadata.
func (s *Solid) EdgeMetadata(name string) (*Metadata, bool) {
	m, ok := s.edgeMeta[name]
	return m.Clone(), ok
}

// SetEdgeMetadata stores a copy of m for edge name.
func (s *Solid) SetEdgeMetadata(name string, m *Metadata) {
	s.edgeMeta[name] = m.Clone()
}

// Clone returns a deep copy sharing face IDs with s. The copy has no engine
// handle of its own.
func (s *Solid) Clone() *Solid {
	c := newSolid(s.eng)
	c.vertices = slices.Clone(s.vertices)
	c.triangles = slices.Clone(s.triangles)
	c.faceIDs = slices.Clone(s.faceIDs)
	for id, name := range s.idToFace {
		c.idToFace[id] = name
	}
	for name, id := range s.faceToID {
		c.faceToID[name] = id
	}
	for from, to := range s.retired {
		c.retired[from] = to
	}
	c.faceMeta = cloneMeta(s.faceMeta)
	c.edgeMeta = cloneMeta(s.edgeMeta)
	c.auxEdges = s.AuxEdges()
	for p, i := range s.vertexIndex {
		c.vertexIndex[p] = i
	}
	c.dirty = true
	return c
}

// Release frees the engine handle. The solid stays usable and rebuilds a
// handle on demand.
func (s *Solid) Release() {
	if s.handle != nil {
		s.eng.Delete(s.handle)
		s.handle = nil
	}
}

// replaceHandle installs h, releasing the previous handle.
func (s *Solid) replaceHandle(h kernel.Manifold) {
	if s.handle != nil && s.handle != h {
		s.eng.Delete(s.handle)
	}
	s.handle = h
}

// Manifold returns an engine handle reflecting the current buffers,
// rebuilding it when the solid is dirty. The handle stays owned by s.
func (s *Solid) Manifold() (kernel.Manifold, error) {
	if !s.dirty && s.handle != nil {
		return s.handle, nil
	}
	h, err := s.eng.Build(s.Mesh())
	if err != nil {
		return nil, fmt.Errorf("solid: build: %w", err)
	}
	s.replaceHandle(h)
	s.dirty = false
	return h, nil
}

// Mesh returns a copy of the authored buffers.
func (s *Solid) Mesh() *kernel.MeshGL {
	return kernel.NewMeshGL(s.vertices, s.triangles, s.faceIDs)
}

// load replaces the buffers with an engine readback. Retired IDs are mapped
// to their canonical ID and unknown IDs get a synthesized FACE_<id> name.
func (s *Solid) load(m *kernel.MeshGL) {
	n := m.VertexCount()
	s.vertices = make([]v3.Vec, n)
	s.vertexIndex = make(map[v3.Vec]uint32, n)
	for i := 0; i < n; i++ {
		p := m.Position(i)
		s.vertices[i] = p
		if _, ok := s.vertexIndex[p]; !ok {
			s.vertexIndex[p] = uint32(i)
		}
	}
	nt := m.TriangleCount()
	s.triangles = make([][3]uint32, nt)
	s.faceIDs = make([]uint32, nt)
	for t := 0; t < nt; t++ {
		s.triangles[t] = m.Triangle(t)
		var id uint32
		if len(m.FaceID) > 0 {
			id = m.FaceID[t]
		}
		id = s.canonical(id)
		if _, ok := s.idToFace[id]; !ok {
			name := "FACE_" + strconv.FormatUint(uint64(id), 10)
			if _, taken := s.faceToID[name]; !taken {
				s.faceToID[name] = id
			}
			s.idToFace[id] = name
		}
		s.faceIDs[t] = id
	}
}

// canonical follows retired IDs to the ID currently standing for them.
func (s *Solid) canonical(id uint32) uint32 {
	for range len(s.retired) {
		c, ok := s.retired[id]
		if !ok || c == id {
			break
		}
		id = c
	}
	return id
}

// collapse rewrites every triangle to the canonical ID of its face name and
// prunes the ID maps to the IDs still in use.
func (s *Solid) collapse() {
	for t, id := range s.faceIDs {
		name := s.idToFace[id]
		canon, ok := s.faceToID[name]
		if !ok {
			s.faceToID[name] = id
			continue
		}
		if canon != id {
			s.retired[id] = canon
			s.faceIDs[t] = canon
		}
	}
	s.prune()
}

// prune drops names and IDs that no triangle uses.
func (s *Solid) prune() {
	used := make(map[uint32]bool, len(s.faceToID))
	for _, id := range s.faceIDs {
		used[id] = true
	}
	for id, name := range s.idToFace {
		if !used[id] {
			delete(s.idToFace, id)
			if s.faceToID[name] == id {
				delete(s.faceToID, name)
			}
		}
	}
	for name, id := range s.faceToID {
		if !used[id] {
			delete(s.faceToID, name)
		}
	}
}

// compactVertices drops unreferenced vertices and rebuilds the dedup index.
func (s *Solid) compactVertices() {
	remap := make([]int, len(s.vertices))
	for i := range remap {
		remap[i] = -1
	}
	verts := make([]v3.Vec, 0, len(s.vertices))
	for t, tri := range s.triangles {
		for k, v := range tri {
			if remap[v] < 0 {
				remap[v] = len(verts)
				verts = append(verts, s.vertices[v])
			}
			s.triangles[t][k] = uint32(remap[v])
		}
	}
	s.vertices = verts
	s.vertexIndex = make(map[v3.Vec]uint32, len(verts))
	for i, p := range verts {
		if _, ok := s.vertexIndex[p]; !ok {
			s.vertexIndex[p] = uint32(i)
		}
	}
}

// markDirty records a buffer mutation.
func (s *Solid) markDirty() {
	s.dirty = true
}

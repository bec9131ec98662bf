package lighting

import (
	"sync"

	"voxelcore/internal/registry"
	"voxelcore/internal/world"
)

// ChunkKey identifies a chunk column in the store.
type ChunkKey struct {
	CX, CZ int
}

// Emitter is a dynamic light placed by an edit, in chunk-local coordinates.
type Emitter struct {
	X, Y, Z  int
	Level    uint8
	IsBeacon bool
}

// Store is the cross-chunk lighting state: published borders and dynamic emitters.
// Each table has its own lock; replacing one chunk's entry is atomic for that chunk.
type Store struct {
	sx, sy, sz int

	bordersMu sync.Mutex
	borders   map[ChunkKey]*LightBorders

	microMu sync.Mutex
	micro   map[ChunkKey]*MicroBorders

	emittersMu sync.Mutex
	emitters   map[ChunkKey][]Emitter
}

func NewStore(sx, sy, sz int) *Store {
	return &Store{
		sx: sx, sy: sy, sz: sz,
		borders:  make(map[ChunkKey]*LightBorders),
		micro:    make(map[ChunkKey]*MicroBorders),
		emitters: make(map[ChunkKey][]Emitter),
	}
}

// Dims returns the chunk dimensions the store was created for.
func (s *Store) Dims() (int, int, int) { return s.sx, s.sy, s.sz }

// ClearChunk drops everything stored for a chunk.
func (s *Store) ClearChunk(cx, cz int) {
	k := ChunkKey{cx, cz}
	s.bordersMu.Lock()
	delete(s.borders, k)
	s.bordersMu.Unlock()

	s.emittersMu.Lock()
	delete(s.emitters, k)
	s.emittersMu.Unlock()

	s.microMu.Lock()
	delete(s.micro, k)
	s.microMu.Unlock()
}

func (s *Store) ClearAllBorders() {
	s.bordersMu.Lock()
	s.borders = make(map[ChunkKey]*LightBorders)
	s.bordersMu.Unlock()
}

// Borders returns the published borders of a chunk.
func (s *Store) Borders(cx, cz int) (*LightBorders, bool) {
	s.bordersMu.Lock()
	defer s.bordersMu.Unlock()
	lb, ok := s.borders[ChunkKey{cx, cz}]
	return lb, ok
}

// neighborOffsets pairs each horizontal face with the neighbor column it faces.
var neighborOffsets = [...]struct {
	face   registry.Face
	dx, dz int
}{
	{registry.FaceNegX, -1, 0},
	{registry.FacePosX, 1, 0},
	{registry.FaceNegZ, 0, -1},
	{registry.FacePosZ, 0, 1},
}

// NeighborBorders maps the planes published by the four horizontal neighbors onto this
// chunk's faces: (cx-1)'s +X plane becomes our -X neighbor plane, and so on.
func (s *Store) NeighborBorders(cx, cz int) NeighborBorders {
	var nb NeighborBorders
	s.bordersMu.Lock()
	defer s.bordersMu.Unlock()
	for _, o := range neighborOffsets {
		if b, ok := s.borders[ChunkKey{cx + o.dx, cz + o.dz}]; ok {
			p := b.Planes[o.face.Opposite()]
			nb.Planes[o.face] = &p
		}
	}
	return nb
}

// UpdateBorders replaces a chunk's borders and reports whether anything changed.
func (s *Store) UpdateBorders(cx, cz int, lb *LightBorders) bool {
	changed, _ := s.UpdateBordersMask(cx, cz, lb)
	return changed
}

// UpdateBordersMask replaces a chunk's borders when they differ bit for bit from the stored
// ones. A first publication counts as changed on +X and +Z so the owners of those seams
// rebuild.
func (s *Store) UpdateBordersMask(cx, cz int, lb *LightBorders) (bool, BorderChangeMask) {
	k := ChunkKey{cx, cz}
	s.bordersMu.Lock()
	defer s.bordersMu.Unlock()
	existing, ok := s.borders[k]
	if !ok {
		s.borders[k] = lb
		var m BorderChangeMask
		m.set(registry.FacePosX)
		m.set(registry.FacePosZ)
		return true, m
	}
	m := diffBorders(existing, lb)
	if m.Any() {
		s.borders[k] = lb
	}
	return m.Any(), m
}

func (s *Store) UpdateMicroBorders(cx, cz int, mb *MicroBorders) {
	s.microMu.Lock()
	s.micro[ChunkKey{cx, cz}] = mb
	s.microMu.Unlock()
}

// NeighborMicroBorders maps the horizontal neighbors' micro planes onto this chunk's faces.
// Columns are not chunked vertically, so Y faces stay empty.
func (s *Store) NeighborMicroBorders(cx, cz int) NeighborMicroBorders {
	nb := NeighborMicroBorders{MX: s.sx * MicroScale, MY: s.sy * MicroScale, MZ: s.sz * MicroScale}
	s.microMu.Lock()
	defer s.microMu.Unlock()
	for _, o := range neighborOffsets {
		if m, ok := s.micro[ChunkKey{cx + o.dx, cz + o.dz}]; ok {
			p := m.Planes[o.face.Opposite()]
			nb.Planes[o.face] = &p
		}
	}
	return nb
}

// route converts world coordinates to a chunk key and local position. ok is false when wy
// is outside the column.
func (s *Store) route(wx, wy, wz int) (ChunkKey, int, int, int, bool) {
	if wy < 0 || wy >= s.sy {
		return ChunkKey{}, 0, 0, 0, false
	}
	k := ChunkKey{world.FloorDiv(wx, s.sx), world.FloorDiv(wz, s.sz)}
	return k, world.Mod(wx, s.sx), wy, world.Mod(wz, s.sz), true
}

func (s *Store) AddEmitterWorld(wx, wy, wz int, level uint8) {
	s.addEmitter(wx, wy, wz, level, false)
}

func (s *Store) AddBeaconWorld(wx, wy, wz int, level uint8) {
	s.addEmitter(wx, wy, wz, level, true)
}

// addEmitter ignores a second emitter at an occupied position.
func (s *Store) addEmitter(wx, wy, wz int, level uint8, beacon bool) {
	k, lx, ly, lz, ok := s.route(wx, wy, wz)
	if !ok {
		return
	}
	s.emittersMu.Lock()
	defer s.emittersMu.Unlock()
	for _, e := range s.emitters[k] {
		if e.X == lx && e.Y == ly && e.Z == lz {
			return
		}
	}
	s.emitters[k] = append(s.emitters[k], Emitter{X: lx, Y: ly, Z: lz, Level: level, IsBeacon: beacon})
}

// RemoveEmitterWorld removes the emitter at a world position, if any.
func (s *Store) RemoveEmitterWorld(wx, wy, wz int) {
	k, lx, ly, lz, ok := s.route(wx, wy, wz)
	if !ok {
		return
	}
	s.emittersMu.Lock()
	defer s.emittersMu.Unlock()
	list := s.emitters[k]
	out := list[:0]
	for _, e := range list {
		if e.X != lx || e.Y != ly || e.Z != lz {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		delete(s.emitters, k)
		return
	}
	s.emitters[k] = out
}

// EmittersForChunk returns a copy of a chunk's dynamic emitters.
func (s *Store) EmittersForChunk(cx, cz int) []Emitter {
	s.emittersMu.Lock()
	defer s.emittersMu.Unlock()
	list := s.emitters[ChunkKey{cx, cz}]
	if len(list) == 0 {
		return nil
	}
	return append([]Emitter(nil), list...)
}

// EmitterCount returns the number of dynamic emitters across all chunks.
func (s *Store) EmitterCount() int {
	s.emittersMu.Lock()
	defer s.emittersMu.Unlock()
	n := 0
	for _, l := range s.emitters {
		n += len(l)
	}
	return n
}

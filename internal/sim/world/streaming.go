package world

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// ActionKind discriminates chunk streaming actions.
type ActionKind uint8

const (
	ActionSpawn ActionKind = iota + 1
	ActionDespawn
)

// Action tells the host to instantiate or destroy one chunk. Within a tick,
// despawns are emitted before spawns.
type Action struct {
	Kind  ActionKind
	Coord ChunkCoord
}

// streamer diffs the desired chunk window against the loaded set and drains
// the difference through budgeted FIFO queues, so a viewer teleport or a
// large view distance never dumps all the work on a single tick.
type streamer struct {
	cfg Config

	viewerXZ        mgl32.Vec2
	lastViewerChunk ChunkCoord
	hasViewerChunk  bool

	loaded         map[ChunkCoord]struct{}
	desired        map[ChunkCoord]struct{}
	pendingSpawn   []ChunkCoord
	pendingDespawn []ChunkCoord
}

func newStreamer(cfg Config) *streamer {
	return &streamer{
		cfg:     cfg,
		loaded:  make(map[ChunkCoord]struct{}),
		desired: make(map[ChunkCoord]struct{}),
	}
}

func (s *streamer) setViewer(xz mgl32.Vec2) {
	s.viewerXZ = xz
}

func (s *streamer) isLoaded(c ChunkCoord) bool {
	_, ok := s.loaded[c]
	return ok
}

func (s *streamer) loadedCount() int {
	return len(s.loaded)
}

// loadedChunks returns the loaded set in deterministic order.
func (s *streamer) loadedChunks() []ChunkCoord {
	out := make([]ChunkCoord, 0, len(s.loaded))
	for c := range s.loaded {
		out = append(out, c)
	}
	sortChunks(out)
	return out
}

func (s *streamer) tick() []Action {
	viewerChunk := chunkOfWorld(s.viewerXZ, s.cfg.ChunkWorldSize())

	// Recompute streaming targets only when the viewer enters a new chunk.
	if !s.hasViewerChunk || viewerChunk != s.lastViewerChunk {
		s.hasViewerChunk = true
		s.lastViewerChunk = viewerChunk
		s.recomputeDesired(viewerChunk)
	}

	var actions []Action

	budget := s.cfg.SpawnBudgetPerTick
	for budget > 0 && len(s.pendingDespawn) > 0 {
		coord := s.pendingDespawn[0]
		s.pendingDespawn = s.pendingDespawn[1:]
		if _, ok := s.loaded[coord]; ok {
			delete(s.loaded, coord)
			actions = append(actions, Action{Kind: ActionDespawn, Coord: coord})
		}
		budget--
	}

	budget = s.cfg.SpawnBudgetPerTick
	for budget > 0 && len(s.pendingSpawn) > 0 {
		coord := s.pendingSpawn[0]
		s.pendingSpawn = s.pendingSpawn[1:]
		if _, ok := s.loaded[coord]; ok {
			budget--
			continue
		}
		s.loaded[coord] = struct{}{}
		actions = append(actions, Action{Kind: ActionSpawn, Coord: coord})
		budget--
	}

	return actions
}

// recomputeDesired refills the desired window (Chebyshev distance
// ViewDistanceChunks around the viewer chunk) and rebuilds both pending
// queues from the set differences. Queues are sorted so the emission order is
// reproducible for a given walk.
func (s *streamer) recomputeDesired(viewerChunk ChunkCoord) {
	for c := range s.desired {
		delete(s.desired, c)
	}
	r := s.cfg.ViewDistanceChunks
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			s.desired[ChunkCoord{CX: viewerChunk.CX + dx, CZ: viewerChunk.CZ + dz}] = struct{}{}
		}
	}

	s.pendingSpawn = s.pendingSpawn[:0]
	for c := range s.desired {
		if _, ok := s.loaded[c]; !ok {
			s.pendingSpawn = append(s.pendingSpawn, c)
		}
	}
	sortChunks(s.pendingSpawn)

	s.pendingDespawn = s.pendingDespawn[:0]
	for c := range s.loaded {
		if _, ok := s.desired[c]; !ok {
			s.pendingDespawn = append(s.pendingDespawn, c)
		}
	}
	sortChunks(s.pendingDespawn)
}

func sortChunks(cs []ChunkCoord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].CX != cs[j].CX {
			return cs[i].CX < cs[j].CX
		}
		return cs[i].CZ < cs[j].CZ
	})
}

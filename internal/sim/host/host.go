package host

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"terrascape.dev/internal/protocol"
	"terrascape.dev/internal/sim/catalogs"
	"terrascape.dev/internal/sim/world"
)

// TickSink receives one entry per completed tick.
type TickSink interface {
	WriteTick(world.TickLogEntry) error
}

// AuditSink receives one entry per accepted or refused mutation.
type AuditSink interface {
	WriteAudit(world.AuditEntry) error
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	SessionID string
	Welcome   protocol.WelcomeMsg
}

// Envelope carries one raw viewer message into the host loop.
type Envelope struct {
	SessionID string
	Raw       []byte
}

type session struct {
	id   string
	name string
	out  chan []byte
}

// Metrics is a point-in-time snapshot for the /metrics endpoint.
type Metrics struct {
	Tick         uint64
	Clients      int
	LoadedChunks int
	Objects      int
	StepMs       int64
	InboxDepth   int
	JoinDepth    int
	LeaveDepth   int
}

// Host owns a single world and serializes all access to it: session joins
// and leaves, viewer messages, and the tick itself all run on one goroutine.
type Host struct {
	worldID  string
	tickRate int
	seed     int64

	w    *world.World
	cats *catalogs.Catalogs
	log  *log.Logger

	join  chan JoinRequest
	leave chan string
	inbox chan Envelope

	tickSink  TickSink
	auditSink AuditSink

	mu       sync.Mutex
	sessions map[string]*session
	metrics  Metrics
}

func New(worldID string, tickRate int, seed int64, w *world.World, cats *catalogs.Catalogs, logger *log.Logger) *Host {
	if tickRate <= 0 {
		tickRate = 10
	}
	return &Host{
		worldID:  worldID,
		tickRate: tickRate,
		seed:     seed,
		w:        w,
		cats:     cats,
		log:      logger,
		join:     make(chan JoinRequest, 16),
		leave:    make(chan string, 16),
		inbox:    make(chan Envelope, 256),
		sessions: make(map[string]*session),
	}
}

func (h *Host) Join() chan<- JoinRequest { return h.join }
func (h *Host) Leave() chan<- string     { return h.leave }
func (h *Host) Inbox() chan<- Envelope   { return h.inbox }

func (h *Host) SetTickSink(s TickSink)   { h.tickSink = s }
func (h *Host) SetAuditSink(s AuditSink) { h.auditSink = s }

func (h *Host) Metrics() Metrics {
	h.mu.Lock()
	m := h.metrics
	m.Clients = len(h.sessions)
	h.mu.Unlock()
	m.InboxDepth = len(h.inbox)
	m.JoinDepth = len(h.join)
	m.LeaveDepth = len(h.leave)
	return m
}

// Run drives the world until the context is cancelled.
func (h *Host) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(h.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-h.join:
			h.handleJoin(req)
		case id := <-h.leave:
			h.mu.Lock()
			delete(h.sessions, id)
			h.mu.Unlock()
		case env := <-h.inbox:
			h.handleMessage(env)
		case <-ticker.C:
			h.step()
		}
	}
}

func (h *Host) handleJoin(req JoinRequest) {
	id := uuid.NewString()
	sess := &session{id: id, name: req.Name, out: req.Out}
	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()

	cfg := h.w.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       id,
		WorldID:         h.worldID,
		WorldParams: protocol.WorldParams{
			TickRateHz:         h.tickRate,
			Seed:               h.seed,
			ChunkSize:          cfg.ChunkSize,
			TileSize:           cfg.TileSize,
			ViewDistanceChunks: cfg.ViewDistanceChunks,
			HeightScale:        cfg.HeightScale,
		},
		Catalogs: protocol.CatalogDigests{
			TilesDigest:   h.cats.Tiles.Digest,
			ObjectsDigest: h.cats.Objects.Digest,
		},
	}
	for i, d := range h.cats.Tiles.Defs {
		welcome.TileTypes = append(welcome.TileTypes, protocol.TileTypeRef{
			ID:       uint16(i),
			Name:     d.Name,
			Color:    d.Color,
			HeightLT: d.HeightLT,
		})
	}
	for i, d := range h.cats.Objects.Defs {
		welcome.ObjectTypes = append(welcome.ObjectTypes, protocol.ObjTypeRef{
			ID:           uint16(i),
			Name:         d.Name,
			Model:        d.Model,
			Scale:        d.Scale,
			RenderOffset: d.RenderOffset,
			HoverRadius:  d.HoverRadius,
		})
	}

	req.Resp <- JoinResponse{SessionID: id, Welcome: welcome}
	h.log.Printf("session joined id=%s name=%s", id, req.Name)
}

func (h *Host) handleMessage(env Envelope) {
	h.mu.Lock()
	sess := h.sessions[env.SessionID]
	h.mu.Unlock()
	if sess == nil {
		return
	}

	base, err := protocol.DecodeBase(env.Raw)
	if err != nil {
		h.sendError(sess, protocol.ErrProtoBadRequest, "malformed json")
		return
	}

	switch base.Type {
	case protocol.TypeView:
		var m protocol.ViewMsg
		if json.Unmarshal(env.Raw, &m) != nil {
			h.sendError(sess, protocol.ErrProtoBadRequest, "bad VIEW")
			return
		}
		h.w.SetViewer(mgl32.Vec2{m.Pos[0], m.Pos[1]})

	case protocol.TypeCursor:
		var m protocol.CursorMsg
		if json.Unmarshal(env.Raw, &m) != nil {
			h.sendError(sess, protocol.ErrProtoBadRequest, "bad CURSOR")
			return
		}
		h.handleCursor(sess, m)

	case protocol.TypePlace:
		var m protocol.PlaceMsg
		if json.Unmarshal(env.Raw, &m) != nil {
			h.sendError(sess, protocol.ErrProtoBadRequest, "bad PLACE")
			return
		}
		h.handlePlace(sess, m)

	case protocol.TypeRemove:
		var m protocol.RemoveMsg
		if json.Unmarshal(env.Raw, &m) != nil {
			h.sendError(sess, protocol.ErrProtoBadRequest, "bad REMOVE")
			return
		}
		h.handleRemove(sess, m)

	default:
		h.sendError(sess, protocol.ErrProtoBadRequest, "unknown type "+base.Type)
	}
}

func (h *Host) handleCursor(sess *session, m protocol.CursorMsg) {
	hover := protocol.HoverMsg{
		Type:            protocol.TypeHover,
		ProtocolVersion: protocol.Version,
		Tick:            h.w.CurrentTick(),
	}

	ray := world.Ray{
		Origin: mgl32.Vec3{m.Origin[0], m.Origin[1], m.Origin[2]},
		Dir:    mgl32.Vec3{m.Dir[0], m.Dir[1], m.Dir[2]},
	}
	point, ok := h.w.Raycast(ray)
	if ok {
		hover.Hit = true
		hover.Point = [3]float32{point.X(), point.Y(), point.Z()}

		if handle, hit := h.w.PickHovered(point); hit {
			hover.Object = &protocol.ObjectRef{Index: handle.Index, Generation: handle.Generation}
		} else {
			tile := h.w.Config().WorldToTileCoord(point.X(), point.Z())
			hover.Tile = &protocol.TileRef{TX: tile.TX, TZ: tile.TZ}
			outline := h.w.BuildTileOutlineMesh(tile)
			buf := meshBuffer(outline)
			hover.Outline = &buf
		}
	}

	h.sendTo(sess, hover)
}

func (h *Host) handlePlace(sess *session, m protocol.PlaceMsg) {
	typeID := world.ObjectTypeID(m.ObjectType)
	pos := mgl32.Vec3{m.Pos[0], m.Pos[1], m.Pos[2]}

	audit := world.AuditEntry{
		Tick:    h.w.CurrentTick(),
		Session: sess.id,
		Action:  "PLACE",
		TypeID:  m.ObjectType,
		Pos:     m.Pos,
	}

	if _, ok := h.w.ObjectTypes().Get(typeID); !ok {
		audit.Code = protocol.ErrInvalidTarget
		h.writeAudit(audit)
		h.sendError(sess, protocol.ErrInvalidTarget, "unknown object type")
		return
	}
	if !h.w.CanPlace(typeID, pos) {
		audit.Code = protocol.ErrOverlap
		h.writeAudit(audit)
		h.sendError(sess, protocol.ErrOverlap, "placement overlaps an existing object")
		return
	}

	handle, ok := h.w.Place(typeID, pos, m.Yaw)
	if !ok {
		audit.Code = protocol.ErrInternal
		h.writeAudit(audit)
		h.sendError(sess, protocol.ErrInternal, "place failed")
		return
	}

	audit.Index = handle.Index
	audit.Generation = handle.Generation
	h.writeAudit(audit)

	inst := h.w.Get(handle)
	h.broadcast(protocol.PlacedMsg{
		Type:            protocol.TypePlaced,
		ProtocolVersion: protocol.Version,
		Tick:            h.w.CurrentTick(),
		Object:          protocol.ObjectRef{Index: handle.Index, Generation: handle.Generation},
		ObjectType:      m.ObjectType,
		Pos:             m.Pos,
		Yaw:             inst.Yaw,
	})
}

func (h *Host) handleRemove(sess *session, m protocol.RemoveMsg) {
	handle := world.ObjectHandle{Index: m.Object.Index, Generation: m.Object.Generation}

	audit := world.AuditEntry{
		Tick:       h.w.CurrentTick(),
		Session:    sess.id,
		Action:     "REMOVE",
		Index:      handle.Index,
		Generation: handle.Generation,
	}

	if !h.w.Remove(handle) {
		audit.Code = protocol.ErrStale
		h.writeAudit(audit)
		h.sendError(sess, protocol.ErrStale, "handle no longer valid")
		return
	}

	h.writeAudit(audit)
	h.broadcast(protocol.RemovedMsg{
		Type:            protocol.TypeRemoved,
		ProtocolVersion: protocol.Version,
		Tick:            h.w.CurrentTick(),
		Object:          m.Object,
	})
}

func (h *Host) step() {
	start := time.Now()
	actions := h.w.Tick()

	spawned, despawned := 0, 0
	if len(actions) > 0 {
		msg := protocol.ActionsMsg{
			Type:            protocol.TypeActions,
			ProtocolVersion: protocol.Version,
			Tick:            h.w.CurrentTick(),
		}
		for _, a := range actions {
			ca := protocol.ChunkAction{CX: a.Coord.CX, CZ: a.Coord.CZ}
			switch a.Kind {
			case world.ActionSpawn:
				spawned++
				ca.Kind = "SPAWN"
				buf := meshBuffer(h.w.BuildChunkMeshData(a.Coord))
				ca.Mesh = &buf
			case world.ActionDespawn:
				despawned++
				ca.Kind = "DESPAWN"
			}
			msg.Actions = append(msg.Actions, ca)
		}
		h.broadcast(msg)
	}

	stepMs := time.Since(start).Milliseconds()
	entry := world.TickLogEntry{
		Tick:         h.w.CurrentTick(),
		Spawned:      spawned,
		Despawned:    despawned,
		LoadedChunks: len(h.w.LoadedChunks()),
		Objects:      h.w.ObjectCount(),
		StepMs:       stepMs,
	}
	if h.tickSink != nil {
		if err := h.tickSink.WriteTick(entry); err != nil {
			h.log.Printf("tick log: %v", err)
		}
	}

	h.mu.Lock()
	h.metrics.Tick = entry.Tick
	h.metrics.LoadedChunks = entry.LoadedChunks
	h.metrics.Objects = entry.Objects
	h.metrics.StepMs = stepMs
	h.mu.Unlock()
}

func (h *Host) writeAudit(e world.AuditEntry) {
	if h.auditSink == nil {
		return
	}
	if err := h.auditSink.WriteAudit(e); err != nil {
		h.log.Printf("audit log: %v", err)
	}
}

func (h *Host) sendError(sess *session, code, msg string) {
	h.sendTo(sess, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         msg,
	})
}

func (h *Host) sendTo(sess *session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case sess.out <- b:
	default:
		// Slow consumer; drop rather than stall the loop.
	}
}

func (h *Host) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sess := range h.sessions {
		select {
		case sess.out <- b:
		default:
		}
	}
}

func meshBuffer(m world.MeshData) protocol.MeshBuffer {
	buf := protocol.MeshBuffer{
		Positions: make([]float32, 0, len(m.Positions)*3),
		Normals:   make([]float32, 0, len(m.Normals)*3),
		UVs:       make([]float32, 0, len(m.UVs)*2),
		Indices:   m.Indices,
	}
	for _, p := range m.Positions {
		buf.Positions = append(buf.Positions, p[0], p[1], p[2])
	}
	for _, n := range m.Normals {
		buf.Normals = append(buf.Normals, n[0], n[1], n[2])
	}
	for _, uv := range m.UVs {
		buf.UVs = append(buf.UVs, uv[0], uv[1])
	}
	return buf
}

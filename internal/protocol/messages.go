package protocol

// HELLO (viewer -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ViewerName      string `json:"viewer_name"`
}

// WELCOME (server -> viewer)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	WorldID         string         `json:"world_id"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
	TileTypes       []TileTypeRef  `json:"tile_types"`
	ObjectTypes     []ObjTypeRef   `json:"object_types"`
}

type WorldParams struct {
	TickRateHz         int     `json:"tick_rate_hz"`
	Seed               int64   `json:"seed"`
	ChunkSize          int     `json:"chunk_size"`
	TileSize           float32 `json:"tile_size"`
	ViewDistanceChunks int     `json:"view_distance_chunks"`
	HeightScale        float32 `json:"height_scale"`
}

type CatalogDigests struct {
	TilesDigest   string `json:"tiles_digest"`
	ObjectsDigest string `json:"objects_digest"`
}

type TileTypeRef struct {
	ID       uint16     `json:"id"`
	Name     string     `json:"name"`
	Color    [3]float32 `json:"color"`
	HeightLT float32    `json:"height_lt"`
}

type ObjTypeRef struct {
	ID           uint16     `json:"id"`
	Name         string     `json:"name"`
	Model        string     `json:"model,omitempty"`
	Scale        [3]float32 `json:"scale"`
	RenderOffset [3]float32 `json:"render_offset"`
	HoverRadius  float32    `json:"hover_radius"`
}

// VIEW (viewer -> server): the viewer's world position driving streaming.
type ViewMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Pos             [2]float32 `json:"pos"` // world XZ
}

// CURSOR (viewer -> server): camera ray for hover resolution.
type CursorMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Origin          [3]float32 `json:"origin"`
	Dir             [3]float32 `json:"dir"`
}

// HOVER (server -> viewer): what the cursor ray currently resolves to.
// Object, when present, wins over the tile.
type HoverMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	Hit             bool        `json:"hit"`
	Point           [3]float32  `json:"point,omitempty"`
	Tile            *TileRef    `json:"tile,omitempty"`
	Object          *ObjectRef  `json:"object,omitempty"`
	Outline         *MeshBuffer `json:"outline,omitempty"`
}

type TileRef struct {
	TX int `json:"tx"`
	TZ int `json:"tz"`
}

type ObjectRef struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// PLACE (viewer -> server)
type PlaceMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ObjectType      uint16     `json:"object_type"`
	Pos             [3]float32 `json:"pos"`
	Yaw             float32    `json:"yaw"`
}

// PLACED (server -> viewer)
type PlacedMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Tick            uint64     `json:"tick"`
	Object          ObjectRef  `json:"object"`
	ObjectType      uint16     `json:"object_type"`
	Pos             [3]float32 `json:"pos"`
	Yaw             float32    `json:"yaw"`
}

// REMOVE (viewer -> server)
type RemoveMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Object          ObjectRef `json:"object"`
}

// REMOVED (server -> viewer)
type RemovedMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Tick            uint64    `json:"tick"`
	Object          ObjectRef `json:"object"`
}

// ACTIONS (server -> viewer): per-tick chunk streaming actions. Spawns carry
// the freshly built chunk mesh so the viewer never resamples terrain.
type ActionsMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Tick            uint64        `json:"tick"`
	Actions         []ChunkAction `json:"actions"`
}

type ChunkAction struct {
	Kind string      `json:"kind"` // "SPAWN" or "DESPAWN"
	CX   int         `json:"cx"`
	CZ   int         `json:"cz"`
	Mesh *MeshBuffer `json:"mesh,omitempty"`
}

// MeshBuffer is the wire form of a triangle mesh, flat arrays ready for
// upload: positions/normals xyz-interleaved, uvs uv-interleaved.
type MeshBuffer struct {
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	UVs       []float32 `json:"uvs"`
	Indices   []uint32  `json:"indices"`
}

// ERROR (server -> viewer)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

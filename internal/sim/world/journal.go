package world

// TickLogEntry is the per-tick journal record written by the host loop.
type TickLogEntry struct {
	Tick         uint64 `json:"tick"`
	Spawned      int    `json:"spawned"`
	Despawned    int    `json:"despawned"`
	LoadedChunks int    `json:"loaded_chunks"`
	Objects      int    `json:"objects"`
	StepMs       int64  `json:"step_ms"`
}

// AuditEntry records one accepted or refused world mutation.
type AuditEntry struct {
	Tick       uint64     `json:"tick"`
	Session    string     `json:"session"`
	Action     string     `json:"action"` // "PLACE" or "REMOVE"
	Code       string     `json:"code,omitempty"`
	Index      uint32     `json:"index"`
	Generation uint32     `json:"generation"`
	TypeID     uint16     `json:"type_id,omitempty"`
	Pos        [3]float32 `json:"pos,omitempty"`
}

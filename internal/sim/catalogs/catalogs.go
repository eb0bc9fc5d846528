package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Catalogs struct {
	Tiles   TileCatalog
	Objects ObjectCatalog
}

// TileCatalog holds the terrain classification table in file order. Order is
// meaningful: thresholds must be strictly increasing and the row index is the
// tile's atlas slot.
type TileCatalog struct {
	Defs   []TileDef
	Digest string
}

type TileDef struct {
	Name     string     `json:"name"`
	Color    [3]float32 `json:"color"`
	HeightLT float32    `json:"height_lt"`
}

// ObjectCatalog holds placeable object definitions in deterministic order.
// Synthesized is set when the defs directory was empty and a single
// placeholder def was injected so placement stays usable.
type ObjectCatalog struct {
	Defs        []ObjectDef
	Digest      string
	Synthesized bool
}

type ObjectDef struct {
	Name         string     `json:"name"`
	Model        string     `json:"model,omitempty"`
	Scale        [3]float32 `json:"scale"`
	RenderOffset [3]float32 `json:"render_offset"`
	HoverRadius  float32    `json:"hover_radius"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadTiles(filepath.Join(configDir, "tiles.json"), &c.Tiles); err != nil {
		return nil, err
	}
	if err := loadObjects(filepath.Join(configDir, "objects"), &c.Objects); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTiles(path string, out *TileCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.Defs); err != nil {
		return fmt.Errorf("tiles.json: %w", err)
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("tiles.json: %w", err)
	}
	return nil
}

// Validate rejects malformed tile tables: the table must be non-empty, every
// name non-empty, and height_lt values finite and strictly increasing.
func (c *TileCatalog) Validate() error {
	if len(c.Defs) == 0 {
		return fmt.Errorf("tile table is empty")
	}
	prev := float32(math.Inf(-1))
	for i, d := range c.Defs {
		if d.Name == "" {
			return fmt.Errorf("tile %d: empty name", i)
		}
		lt := float64(d.HeightLT)
		if math.IsNaN(lt) || math.IsInf(lt, 0) {
			return fmt.Errorf("tile %q: height_lt is not finite", d.Name)
		}
		if d.HeightLT <= prev {
			return fmt.Errorf("tile %q: height_lt %v not strictly above previous %v", d.Name, d.HeightLT, prev)
		}
		prev = d.HeightLT
	}
	return nil
}

// placeholderObjectDef stands in when no object defs exist, so hosts always
// have at least one placeable type.
func placeholderObjectDef() ObjectDef {
	return ObjectDef{
		Name:        "MissingObjectDefs",
		Scale:       [3]float32{1, 1, 1},
		HoverRadius: 1.0,
	}
}

func loadObjects(dir string, out *ObjectCatalog) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			out.Defs = []ObjectDef{placeholderObjectDef()}
			out.Digest = sha256Hex(nil)
			out.Synthesized = true
			return nil
		}
		return err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var concat bytes.Buffer
	seen := map[string]string{}
	for _, p := range files {
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		concat.Write(b)
		concat.WriteByte('\n')

		// Omitted scale means unit scale, not a degenerate zero-size visual.
		def := ObjectDef{Scale: [3]float32{1, 1, 1}}
		if err := json.Unmarshal(b, &def); err != nil {
			return fmt.Errorf("object %s: %w", filepath.Base(p), err)
		}
		if def.Name == "" {
			return fmt.Errorf("object %s: missing name", filepath.Base(p))
		}
		if def.Model == "" {
			return fmt.Errorf("object %s: missing model", filepath.Base(p))
		}
		if other, dup := seen[def.Name]; dup {
			return fmt.Errorf("object %s: name %q already defined in %s", filepath.Base(p), def.Name, other)
		}
		seen[def.Name] = filepath.Base(p)
		if !(def.HoverRadius > 0) {
			return fmt.Errorf("object %s: hover_radius must be positive", filepath.Base(p))
		}
		out.Defs = append(out.Defs, def)
	}
	out.Digest = sha256Hex(concat.Bytes())

	if len(out.Defs) == 0 {
		out.Defs = []ObjectDef{placeholderObjectDef()}
		out.Synthesized = true
	}
	return nil
}

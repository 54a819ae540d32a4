package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/matzehuels/techtree/pkg/layout"
)

// keyVersion is bumped whenever layout.Result or the snapshot JSON changes
// shape, so entries written by older builds are never read back.
const keyVersion = "v1"

// TreeHash is the SHA-256 hex digest of a tree's canonical JSON.
func TreeHash(canonical []byte) string { return digest(canonical) }

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<kind>:<digest>" over the key version, the tree hash and
// the JSON form of opts.
func hashKey(kind, treeHash string, opts any) string {
	data, _ := json.Marshal(opts)
	h := sha256.New()
	h.Write([]byte(keyVersion))
	h.Write([]byte{0})
	h.Write([]byte(treeHash))
	h.Write([]byte{0})
	h.Write(data)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// Keyer generates cache keys for layouts and rendered artifacts.
type Keyer interface {
	// LayoutKey identifies the positions of one tree in one viewport.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string
	// RenderKey identifies a rendered snapshot. Completion state is part of
	// the key because it changes the colors.
	RenderKey(treeHash string, opts RenderKeyOpts) string
}

// LayoutKeyOpts are the inputs that change node positions.
type LayoutKeyOpts struct {
	Viewport layout.Viewport `json:"viewport"`
	Config   layout.Config   `json:"config"`
}

// RenderKeyOpts are the inputs that change a rendered artifact.
type RenderKeyOpts struct {
	LayoutKeyOpts
	Format string   `json:"format"`
	Done   []string `json:"done,omitempty"`
}

// DefaultKeyer hashes key options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// RenderKey returns "render:<hash>".
func (DefaultKeyer) RenderKey(treeHash string, opts RenderKeyOpts) string {
	return hashKey("render", treeHash, opts)
}

var _ Keyer = DefaultKeyer{}

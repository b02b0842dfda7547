package cache

import (
	"slices"
	"strings"
)

// Keyer derives cache keys.
type Keyer interface {
	// WorkflowsKey identifies the workflow list of one database.
	WorkflowsKey(conn Conn) string
	// ResolutionKey identifies the resolved metadata of one workflow load.
	ResolutionKey(conn Conn, workflowID string, refs []RefKey) string
	// LayoutKey identifies a computed layout of a model.
	LayoutKey(modelHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies a rendered layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// Conn identifies a document-store database.
type Conn struct {
	URI      string
	Database string
}

// RefKey is one metadata reference of a workflow node.
type RefKey struct {
	ID   string
	Kind string
}

// LayoutKeyOpts are the layout parameters that change the result.
type LayoutKeyOpts struct {
	Strategy  string
	Direction string
	Selected  string
	// Params is a digest of the engine options.
	Params string
}

// ArtifactKeyOpts are the rendering parameters that change the output.
type ArtifactKeyOpts struct {
	Format string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key scheme.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// WorkflowsKey implements Keyer.
func (DefaultKeyer) WorkflowsKey(conn Conn) string {
	return hashKey("workflows", Hash([]byte(conn.URI)), conn.Database)
}

// ResolutionKey implements Keyer. The order of refs does not matter.
func (DefaultKeyer) ResolutionKey(conn Conn, workflowID string, refs []RefKey) string {
	sorted := slices.Clone(refs)
	slices.SortFunc(sorted, func(a, b RefKey) int {
		if c := strings.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	sorted = slices.Compact(sorted)
	return hashKey("resolve", Hash([]byte(conn.URI)), conn.Database, workflowID, sorted)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", modelHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}

package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each session its own
// namespace in a shared store:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "session:"+id+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the default scheme.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// WorkflowsKey implements Keyer.
func (k *ScopedKeyer) WorkflowsKey(conn Conn) string {
	return k.prefix + k.inner.WorkflowsKey(conn)
}

// ResolutionKey implements Keyer.
func (k *ScopedKeyer) ResolutionKey(conn Conn, workflowID string, refs []RefKey) string {
	return k.prefix + k.inner.ResolutionKey(conn, workflowID, refs)
}

// LayoutKey implements Keyer.
func (k *ScopedKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(modelHash, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

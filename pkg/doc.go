// Package pkg provides the core libraries for Flowlens workflow visualization.
//
// # Overview
//
// Flowlens reads workflow definitions from a MongoDB database, resolves the
// metadata of every node in two batched catalog queries, and draws the
// workflow as a layered or linear graph. Sub-workflow nodes can be opened
// in place, so a user walks down a tree of workflows with a breadcrumb
// trail back up.
//
// # Architecture
//
//	MongoDB (workflows, meta_nodes, meta_workflows)
//	         ↓
//	    [store] (dial, list workflows, query catalogs)
//	         ↓
//	    [catalog] (batched metadata resolution)
//	         ↓
//	    [graph] (nodes, edges, selection, hidden edges)
//	         ↓
//	    [layout] (coordinates and edge routing)
//	         ↓
//	    [render] (SVG, DOT, Graphviz SVG, PDF, PNG, JSON)
//
// [pipeline] runs these stages with caching and is shared by the CLI and
// the HTTP API.
//
// # Main Packages
//
// ## Domain
//
// [workflow] - Workflow documents, node references and their identities.
//
// [catalog] - Partitions node references by kind and fetches each catalog
// once per workflow view.
//
// [graph] - The view model: nodes carry their metadata, the selected node
// hides its incident edges, and dangling edges are dropped.
//
// [selection] - Selection and drill-down trail for one interactive view.
//
// [dag] - Row-based DAG used by the layered layout.
//
// [dag/transform] - Cycle breaking, row assignment and edge subdivision.
//
// [layout] - Layered and linear layout engines.
//
// [layout/ordering] - Barycentric crossing reduction within rows.
//
// ## Rendering
//
// [render/svg] - Native SVG of a computed layout.
//
// [render/nodelink] - DOT export and Graphviz rendering.
//
// [render] - SVG to PDF/PNG conversion.
//
// ## Infrastructure
//
// [store] - Document store access with MongoDB and in-memory backends.
//
// [session] - Connection sessions with memory, Redis and file backends.
//
// [cache] - Result caching with file, Redis and null backends.
//
// [config] - TOML configuration with environment overrides.
//
// [observability] - Hooks for pipeline, cache and API events.
//
// [errors] - Error codes shared by all surfaces.
//
// [api] - HTTP API and static frontend server.
//
// [pipeline] - Resolve, build, layout and render with caching.
//
// # Testing
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/layout/...       # Specific package
//	go test -run Example ./pkg/... # Examples only
//
// [store]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/store
// [catalog]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/catalog
// [graph]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/layout
// [layout/ordering]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/layout/ordering
// [render]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/render
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/render/svg
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/pipeline
// [workflow]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/workflow
// [selection]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/selection
// [dag]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/dag/transform
// [session]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/session
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/errors
// [api]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/api
package pkg

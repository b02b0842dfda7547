// Package store defines the document-store boundary: listing workflows and
// looking up catalog records by id.
//
// Implementations live in subpackages:
//   - [github.com/matzehuels/flowlens/pkg/store/mongo]: MongoDB
//   - [github.com/matzehuels/flowlens/pkg/store/memory]: in-memory fixtures
//
// Errors are *errors.Error values: CATALOG_UNAVAILABLE when a collection
// does not exist, TRANSPORT_ERROR for connection and query failures and
// MALFORMED_INPUT for unusable connection parameters.
package store

import (
	"context"

	"github.com/matzehuels/flowlens/pkg/catalog"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// Store is a connected document store.
type Store interface {
	catalog.Catalog

	// ListWorkflows returns every document of the meta_workflows
	// collection, with missing ids assigned as by workflow.AssignIDs.
	ListWorkflows(ctx context.Context) ([]workflow.Workflow, error)

	// Close releases the connection.
	Close() error
}

// Dialer opens a Store for a connection string and database name.
type Dialer func(ctx context.Context, uri, dbName string) (Store, error)

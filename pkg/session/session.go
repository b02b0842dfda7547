// Package session holds the connection a user is working with and the
// workflow list fetched through it.
//
// A [Session] carries exactly three persisted values under fixed keys:
// mongoUri, dbName and meta_workflows. It is populated when a connection
// succeeds and deleted on disconnect or when the connection fails. The
// workflow payload is stored raw; a missing or unparsable payload reads as
// an empty workflow list, never an error.
//
// Backends:
//   - [FileStore]: one JSON file per session, for the CLI
//   - [RedisStore]: one Redis hash per session, for the API server
//   - [MemoryStore]: in-process, for tests and single-instance servers
//
// Usage:
//
//	sess := session.New(uri, db, session.DefaultTTL)
//	sess.SetWorkflows(list)
//	_ = store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if sess == nil {
//	    // unknown or expired
//	}
//	workflows := sess.WorkflowList()
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowlens/pkg/workflow"
)

// Fixed keys of the persisted values.
const (
	KeyMongoURI  = "mongoUri"
	KeyDBName    = "dbName"
	KeyWorkflows = "meta_workflows"
)

// DefaultTTL is the lifetime of server sessions.
const DefaultTTL = 24 * time.Hour

// Session is one active connection.
type Session struct {
	ID        string          `json:"id"`
	MongoURI  string          `json:"mongoUri"`
	DBName    string          `json:"dbName"`
	Workflows json.RawMessage `json:"meta_workflows,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	// ExpiresAt is zero for sessions that do not expire.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// New creates a session with a random id. A ttl of zero never expires.
func New(mongoURI, dbName string, ttl time.Duration) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		MongoURI:  mongoURI,
		DBName:    dbName,
		CreatedAt: now,
	}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// SetWorkflows stores the workflow list payload.
func (s *Session) SetWorkflows(list []workflow.Workflow) error {
	if list == nil {
		list = []workflow.Workflow{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	s.Workflows = data
	return nil
}

// WorkflowList decodes the stored workflow list. A missing or unparsable
// payload yields an empty list. Missing ids are assigned as by
// workflow.AssignIDs.
func (s *Session) WorkflowList() []workflow.Workflow {
	if s == nil || len(s.Workflows) == 0 {
		return []workflow.Workflow{}
	}
	var list []workflow.Workflow
	if err := json.Unmarshal(s.Workflows, &list); err != nil || list == nil {
		return []workflow.Workflow{}
	}
	workflow.AssignIDs(list)
	return list
}

// Workflow returns one workflow of the stored list.
func (s *Session) Workflow(id workflow.ID) (*workflow.Workflow, bool) {
	return workflow.Find(s.WorkflowList(), id)
}

// Store persists sessions.
type Store interface {
	// Get returns the session, or nil, nil when it does not exist or has
	// expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores the session, replacing any previous one with the same id.
	Set(ctx context.Context, s *Session) error

	// Delete removes the session. Deleting a missing session succeeds.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions. It may be a no-op for backends
	// that expire entries themselves.
	Cleanup(ctx context.Context) error

	Close() error
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowlens/pkg/buildinfo"
	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/catalog"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// =============================================================================
// Request and response types
// =============================================================================

// ConnectRequest names a document store database.
type ConnectRequest struct {
	MongoURI string `json:"mongoUri"`
	DBName   string `json:"dbName"`
}

// NodeRefRequest is one node reference of a metadata request.
type NodeRefRequest struct {
	MetamodelID workflow.ID `json:"metamodelId"`
	Type        string      `json:"type,omitempty"`
}

// MetaNodesRequest asks for the metadata of a set of node references.
type MetaNodesRequest struct {
	ConnectRequest
	Nodes []NodeRefRequest `json:"nodes"`
}

type connectResponse struct {
	Success   bool                `json:"success"`
	Workflows []workflow.Workflow `json:"workflows"`
}

type metaNodesResponse struct {
	Success bool                      `json:"success"`
	Nodes   []workflow.MetadataRecord `json:"nodes"`
}

type sessionResponse struct {
	Success   bool      `json:"success"`
	SessionID string    `json:"sessionId"`
	Workflows int       `json:"workflows"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// WorkflowSummary is one entry of a session's workflow list.
type WorkflowSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

type workflowsResponse struct {
	Success   bool              `json:"success"`
	Workflows []WorkflowSummary `json:"workflows"`
}

type layoutResponse struct {
	Success bool         `json:"success"`
	Layout  graph.Layout `json:"layout"`
	// ResolveError reports a failed metadata lookup. The layout is still
	// complete, without metadata.
	ResolveError string `json:"resolveError,omitempty"`
	Cached       bool   `json:"cached"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "build": buildinfo.Get()})
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.workflows(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, connectResponse{Success: true, Workflows: list})
}

func (s *Server) metaNodes(w http.ResponseWriter, r *http.Request) {
	var req MetaNodesRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Nodes == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeMalformedInput, "nodes is required"))
		return
	}
	if err := errors.ValidateConnection(req.MongoURI, req.DBName); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.storeFor(r.Context(), req.MongoURI, req.DBName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	refs := make([]workflow.NodeRef, len(req.Nodes))
	for i, n := range req.Nodes {
		refs[i] = workflow.NodeRef{ReferenceID: n.MetamodelID, Kind: workflow.KindFromTag(n.Type)}
	}
	lookup, err := catalog.NewResolver(st, s.logger).Resolve(r.Context(), "", refs)
	if err != nil {
		s.dropOnTransport(err, req.ConnectRequest)
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metaNodesResponse{Success: true, Nodes: lookup.Records()})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.workflows(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := session.New(req.MongoURI, req.DBName, s.cfg.SessionTTL)
	if err := sess.SetWorkflows(list); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode workflows"))
		return
	}
	if err := s.cfg.Sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "save session"))
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		Success:   true,
		SessionID: sess.ID,
		Workflows: len(list),
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.cfg.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "delete session"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list := sess.WorkflowList()
	out := make([]WorkflowSummary, len(list))
	for i, wf := range list {
		out[i] = WorkflowSummary{
			ID:    wf.ID.String(),
			Name:  wf.DisplayName(),
			Nodes: len(wf.Nodes),
			Edges: len(wf.Edges),
		}
	}
	writeJSON(w, http.StatusOK, workflowsResponse{Success: true, Workflows: out})
}

func (s *Server) workflowLayout(w http.ResponseWriter, r *http.Request) {
	res, err := s.execute(r, "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := layoutResponse{
		Success: true,
		Layout:  res.Layout,
		Cached:  res.CacheInfo.LayoutHit,
	}
	if res.ResolveErr != nil {
		out.ResolveError = errors.UserMessage(res.ResolveErr)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) workflowSVG(w http.ResponseWriter, r *http.Request) {
	res, err := s.execute(r, pipeline.FormatSVG)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifact)
}

// =============================================================================
// Helpers
// =============================================================================

// workflows validates a connect request and lists the database's workflows.
// Connect always reads the store.
func (s *Server) workflows(r *http.Request, req ConnectRequest) ([]workflow.Workflow, error) {
	if err := errors.ValidateConnection(req.MongoURI, req.DBName); err != nil {
		return nil, err
	}
	st, err := s.storeFor(r.Context(), req.MongoURI, req.DBName)
	if err != nil {
		return nil, err
	}
	list, err := s.cfg.Runner.Workflows(r.Context(), st, cache.Conn{URI: req.MongoURI, Database: req.DBName}, true)
	if err != nil {
		s.dropOnTransport(err, req)
		return nil, err
	}
	return list, nil
}

func (s *Server) dropOnTransport(err error, req ConnectRequest) {
	if errors.Is(err, errors.ErrCodeTransport) {
		s.evict(req.MongoURI, req.DBName)
	}
}

// session loads the session named in the path. Missing and expired
// sessions are NOT_FOUND.
func (s *Server) session(r *http.Request) (*session.Session, error) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.cfg.Sessions.Get(r.Context(), id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}
	if sess == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "session %s not found", id)
	}
	return sess, nil
}

// execute runs the pipeline for the workflow in the path.
func (s *Server) execute(r *http.Request, format string) (*pipeline.Result, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}
	st, err := s.storeFor(r.Context(), sess.MongoURI, sess.DBName)
	if err != nil {
		return nil, err
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Strategy:    orDefault(q.Get("strategy"), s.cfg.Strategy),
		Direction:   orDefault(q.Get("direction"), s.cfg.Direction),
		Selected:    q.Get("selected"),
		Format:      format,
		Interactive: format == pipeline.FormatSVG,
		Layout:      s.cfg.Layout,
		Logger:      s.logger,
	}
	if v := q.Get("refresh"); v != "" {
		if opts.Refresh, err = strconv.ParseBool(v); err != nil {
			return nil, errors.New(errors.ErrCodeMalformedInput, "invalid refresh %q", v)
		}
	}

	res, err := s.cfg.Runner.Execute(r.Context(), pipeline.Input{
		Session:    sess,
		Catalog:    st,
		WorkflowID: workflow.ID(chi.URLParam(r, "workflowID")),
	}, opts)
	if err != nil {
		return nil, err
	}
	if errors.Is(res.ResolveErr, errors.ErrCodeTransport) {
		s.evict(sess.MongoURI, sess.DBName)
	}
	return res, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/evcms/internal/cmserr"
	"github.com/jjenkins/evcms/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Route paths served by the router
const (
	ActionPath     = "/api/cms"
	MediaPath      = "/api/cms/media"
	InfoPath       = "/api/cms/info"
	ContentsPrefix = "/api/v1/repos/"
)

// UploadMediaAction names media uploads in the audit trail
const UploadMediaAction = "uploadMedia"

// Backend performs the work behind each action
type Backend interface {
	Info(ctx context.Context) (*model.ServerInfo, error)
	Auth(ctx context.Context, p AuthParams) (*model.AuthResult, error)
	GetMedia(ctx context.Context) ([]model.MediaAsset, error)
	EntriesByFolder(ctx context.Context, p EntriesByFolderParams) ([]model.Entry, error)
	GetEntry(ctx context.Context, p GetEntryParams) (*model.Entry, error)
	PersistEntry(ctx context.Context, p PersistEntryParams) (*model.PersistResult, error)
	DeleteEntry(ctx context.Context, p DeleteEntryParams) (*model.DeleteResult, error)
	GetContents(ctx context.Context, path string) (any, error)
}

// Request is an inbound HTTP-like request
type Request struct {
	Method    string
	Path      string
	Body      []byte
	RequestID string
}

// Response is the serialized outcome of a request
type Response struct {
	Status int
	Body   []byte
	Cached bool
}

// RouterOptions configures a Router
type RouterOptions struct {
	InFlightTimeout  time.Duration
	DocumentationURL string
	Clock            Clock
}

// Router resolves requests to actions, collapses identical concurrent reads
// and serves recent identical successful reads from cache
type Router struct {
	backend Backend
	cache   *ResponseCache
	flight  singleflight.Group
	auditor Auditor
	logger  *zap.Logger
	timeout time.Duration
	docURL  string
	now     Clock
}

// NewRouter creates a Router
func NewRouter(backend Backend, cache *ResponseCache, auditor Auditor, logger *zap.Logger, opts RouterOptions) *Router {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.InFlightTimeout <= 0 {
		opts.InFlightTimeout = 30 * time.Second
	}
	if auditor == nil {
		auditor = NopAuditor{}
	}
	return &Router{
		backend: backend,
		cache:   cache,
		auditor: auditor,
		logger:  logger,
		timeout: opts.InFlightTimeout,
		docURL:  opts.DocumentationURL,
		now:     opts.Clock,
	}
}

// Invalidate drops every cached response
func (r *Router) Invalidate() {
	r.cache.Invalidate()
}

type call struct {
	action Action
	params json.RawMessage
	path   string
	target string
}

// Handle runs a request through cache lookup, resolution and dispatch. It
// never returns an error: failures become error responses
func (r *Router) Handle(ctx context.Context, req Request) Response {
	start := r.now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	key := cacheKey(req)

	if status, body, ok := r.cache.Get(key); ok {
		resp := Response{Status: status, Body: body, Cached: true}
		r.audit(ctx, req, call{}, resp, start)
		return resp
	}

	c, err := r.resolve(req)
	if err != nil {
		resp := r.errorResponse(err)
		r.audit(ctx, req, c, resp, start)
		return resp
	}

	gen := r.cache.Generation()
	run := func() Response {
		resp := r.execute(context.WithoutCancel(ctx), c)
		if isSuccess(resp.Status) {
			if c.action.Cacheable() {
				r.cache.Put(key, resp.Status, resp.Body, gen)
			}
			if c.action.Mutating() {
				r.cache.Invalidate()
			}
		}
		return resp
	}

	// only reads are collapsed; every mutation and auth call runs on its own
	if !c.action.Cacheable() {
		resp := run()
		r.audit(ctx, req, c, resp, start)
		return resp
	}

	v, _, shared := r.flight.Do(key, func() (any, error) {
		timer := time.AfterFunc(r.timeout, func() { r.flight.Forget(key) })
		defer timer.Stop()
		return run(), nil
	})
	resp := v.(Response)
	if shared {
		r.logger.Debug("shared in-flight result", zap.String("action", c.action.String()))
	}

	r.audit(ctx, req, c, resp, start)
	return resp
}

// resolve maps method and path to an action call
func (r *Router) resolve(req Request) (call, error) {
	p := req.Path
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}

	switch {
	case p == ActionPath:
		if req.Method != http.MethodPost {
			return call{}, cmserr.MethodNotAllowed(req.Method, p)
		}
		return parseEnvelope(req.Body)

	case p == MediaPath:
		if req.Method != http.MethodGet {
			return call{}, cmserr.MethodNotAllowed(req.Method, p)
		}
		return call{action: ActionGetMedia}, nil

	case p == InfoPath:
		if req.Method != http.MethodGet {
			return call{}, cmserr.MethodNotAllowed(req.Method, p)
		}
		return call{action: ActionInfo}, nil

	case strings.HasPrefix(p+"/", ContentsPrefix):
		contentPath, ok := parseContentsPath(p)
		if !ok {
			return call{}, cmserr.NotFound("route %s not found", p)
		}
		if req.Method != http.MethodGet {
			return call{}, cmserr.MethodNotAllowed(req.Method, p)
		}
		return call{action: ActionGetContents, path: contentPath}, nil
	}

	return call{}, cmserr.NotFound("route %s not found", p)
}

// parseContentsPath extracts the file path from
// /api/v1/repos/{owner}/{repo}/contents[/{path}]
func parseContentsPath(p string) (string, bool) {
	rest := strings.TrimPrefix(p, ContentsPrefix)
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] != "contents" {
		return "", false
	}
	if len(parts) == 3 {
		return "", true
	}
	unescaped, err := url.PathUnescape(parts[3])
	if err != nil {
		return "", false
	}
	return unescaped, true
}

type envelope struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

func parseEnvelope(body []byte) (call, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return call{}, cmserr.BadRequest("invalid JSON body")
	}
	if env.Action == "" {
		return call{}, cmserr.BadRequest("missing required parameter: action")
	}
	action, ok := ParseAction(env.Action)
	if !ok {
		return call{}, cmserr.NotFound("unknown action %q", env.Action)
	}

	c := call{action: action, params: env.Params}
	if action.Mutating() {
		c.target = targetOf(env.Params)
	}
	return c, nil
}

// targetOf extracts the acted-upon path of a mutation for the audit trail
func targetOf(params json.RawMessage) string {
	var p PersistEntryParams
	if err := json.Unmarshal(params, &p); err != nil {
		return ""
	}
	return p.normalize().Path
}

// execute dispatches the call and serializes its result. Panics in the
// backend become internal errors
func (r *Router) execute(ctx context.Context, c call) (resp Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panic",
				zap.String("action", c.action.String()),
				zap.Any("panic", rec),
			)
			resp = r.errorResponse(cmserr.Internal(fmt.Errorf("panic: %v", rec), "internal server error"))
		}
	}()

	result, err := r.dispatch(ctx, c)
	if err != nil {
		return r.errorResponse(err)
	}

	body, err := json.Marshal(result)
	if err != nil {
		return r.errorResponse(cmserr.Internal(err, "failed to encode response"))
	}
	return Response{Status: http.StatusOK, Body: body}
}

func (r *Router) dispatch(ctx context.Context, c call) (any, error) {
	switch c.action {
	case ActionInfo:
		return r.backend.Info(ctx)

	case ActionAuth:
		var p AuthParams
		if err := decodeParams(c.params, &p); err != nil {
			return nil, err
		}
		return r.backend.Auth(ctx, p)

	case ActionGetMedia:
		return r.backend.GetMedia(ctx)

	case ActionEntriesByFolder:
		var p EntriesByFolderParams
		if err := decodeParams(c.params, &p); err != nil {
			return nil, err
		}
		return r.backend.EntriesByFolder(ctx, p)

	case ActionGetEntry:
		var p GetEntryParams
		if err := decodeParams(c.params, &p); err != nil {
			return nil, err
		}
		return r.backend.GetEntry(ctx, p)

	case ActionPersistEntry:
		var p PersistEntryParams
		if err := decodeParams(c.params, &p); err != nil {
			return nil, err
		}
		return r.backend.PersistEntry(ctx, p)

	case ActionDeleteEntry:
		var p DeleteEntryParams
		if err := decodeParams(c.params, &p); err != nil {
			return nil, err
		}
		return r.backend.DeleteEntry(ctx, p)

	case ActionGetContents:
		return r.backend.GetContents(ctx, c.path)
	}

	return nil, cmserr.Internal(nil, "unhandled action %s", c.action)
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return cmserr.BadRequest("invalid params: %v", err)
	}
	return nil
}

func (r *Router) errorResponse(err error) Response {
	e := cmserr.From(err)
	if e.Kind == cmserr.KindInternal {
		r.logger.Error("request failed", zap.Error(err))
	}

	body, marshalErr := json.Marshal(model.ErrorResponse{
		Message:          e.Message,
		Status:           e.Status(),
		Timestamp:        r.now().UTC().Format(time.RFC3339),
		DocumentationURL: r.docURL,
	})
	if marshalErr != nil {
		body = []byte(`{"message":"internal server error","status":500}`)
	}
	return Response{Status: e.Status(), Body: body}
}

func (r *Router) audit(ctx context.Context, req Request, c call, resp Response, start time.Time) {
	action := c.action.String()
	if c.action == 0 {
		action = ""
	}
	r.record(ctx, req, action, c.target, resp.Status, resp.Cached, start)
}

// Record audits a request served outside Handle, such as a media upload
func (r *Router) Record(ctx context.Context, req Request, action, target string, status int, start time.Time) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	r.record(ctx, req, action, target, status, false, start)
}

func (r *Router) record(ctx context.Context, req Request, action, target string, status int, cached bool, start time.Time) {
	r.auditor.Record(ctx, model.AuditEvent{
		Time:       start.UTC(),
		RequestID:  req.RequestID,
		Method:     req.Method,
		Path:       req.Path,
		Action:     action,
		Target:     target,
		Status:     status,
		DurationMS: r.now().Sub(start).Milliseconds(),
		Cached:     cached,
	})
}

func cacheKey(req Request) string {
	var b strings.Builder
	b.Grow(len(req.Method) + len(req.Path) + len(req.Body) + 2)
	b.WriteString(req.Method)
	b.WriteByte(' ')
	b.WriteString(req.Path)
	b.WriteByte('\n')
	b.Write(req.Body)
	return b.String()
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

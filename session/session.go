// Package session composes the client side of a collaborative api-spec view:
// the current document snapshot, the synchronization channel, the transient
// per-cell edit state, and the generation flow. One Session corresponds to
// one open project view in one browser session.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/specboard/specboard/document"
	"github.com/specboard/specboard/realtime"
)

// Loader fetches the initial snapshot. Implemented by *projectapi.Client.
type Loader interface {
	GetAPISpec(ctx context.Context, projectID string) (document.Document, error)
}

// Generator produces a normalized document from a user instruction.
// Implemented by *generation.Pipeline.
type Generator interface {
	Generate(ctx context.Context, projectID, instruction string) (document.Document, error)
}

// Session owns the current document for one project view. All mutations go
// through it: mutate, replace locally, publish best-effort. Inbound snapshots
// replace the document wholesale (last writer wins).
type Session struct {
	projectID string
	loader    Loader
	channel   *realtime.Channel
	generator Generator
	logger    *slog.Logger

	// genSeq guards against a stale generation response being applied after
	// the user has started a newer request or replaced the document.
	genSeq atomic.Uint64

	mu      sync.Mutex
	doc     document.Document
	editing EditState
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithGenerator sets the generation pipeline.
func WithGenerator(g Generator) Option {
	return func(s *Session) {
		s.generator = g
	}
}

// New creates a session for projectID. The channel must be dedicated to this
// session; the session becomes its snapshot handler's target.
func New(projectID string, loader Loader, channel *realtime.Channel, opts ...Option) *Session {
	s := &Session{
		projectID: projectID,
		loader:    loader,
		channel:   channel,
		logger:    slog.Default(),
		doc:       document.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the initial snapshot. A fetch failure is logged and leaves the
// empty document in place: the view renders an empty table rather than
// erroring out.
func (s *Session) Load(ctx context.Context) {
	doc, err := s.loader.GetAPISpec(ctx, s.projectID)
	if err != nil {
		s.logger.Warn("Initial api spec fetch failed, starting empty",
			"project_id", s.projectID,
			"error", err)
		return
	}
	s.Replace(doc)
}

// Document returns a copy of the current snapshot.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Replace overwrites the current snapshot unconditionally. It is the sole
// update primitive, used by local mutations and inbound sync messages alike.
// No diffing, no merge.
func (s *Session) Replace(doc document.Document) {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

// ApplyRemote is the channel's snapshot handler: an inbound snapshot replaces
// the local document wholesale, discarding any unpublished local state.
func (s *Session) ApplyRemote(doc document.Document) {
	s.Replace(doc)
}

// AddRow appends a default-valued row and propagates the new snapshot.
func (s *Session) AddRow() document.Document {
	s.mu.Lock()
	s.doc = document.AddRow(s.doc)
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.publish(doc)
	return doc
}

// DeleteRow removes a row and propagates the new snapshot.
func (s *Session) DeleteRow(index int) (document.Document, error) {
	s.mu.Lock()
	next, err := document.DeleteRow(s.doc, index)
	if err != nil {
		s.mu.Unlock()
		return document.Document{}, err
	}
	s.doc = next
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.publish(doc)
	return doc, nil
}

// SetCell replaces one cell value and propagates the new snapshot.
func (s *Session) SetCell(column string, row int, value string) (document.Document, error) {
	s.mu.Lock()
	next, err := document.SetCell(s.doc, column, row, value)
	if err != nil {
		s.mu.Unlock()
		return document.Document{}, err
	}
	s.doc = next
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.publish(doc)
	return doc, nil
}

// Generate runs the generation pipeline and, if this request is still the
// newest one, replaces and propagates the document. A response that lost the
// race to a newer request is discarded without touching the snapshot.
func (s *Session) Generate(ctx context.Context, instruction string) (document.Document, error) {
	seq := s.genSeq.Add(1)

	doc, err := s.generator.Generate(ctx, s.projectID, instruction)
	if err != nil {
		return document.Document{}, err
	}

	if !s.adoptGenerated(seq, doc) {
		s.logger.Info("Discarding stale generation result",
			"project_id", s.projectID,
			"seq", seq)
		return s.Document(), nil
	}

	s.publish(doc)
	return doc, nil
}

// adoptGenerated installs a generation result only while seq is still the
// newest request. The sequence check and the document swap hold the same
// lock; a result that lost the race leaves the document untouched.
func (s *Session) adoptGenerated(seq uint64, doc document.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.genSeq.Load() != seq {
		return false
	}
	s.doc = doc
	return true
}

// Close tears down the session's channel.
func (s *Session) Close() {
	s.channel.Close()
}

// publish sends the snapshot best-effort. A disconnected channel skips the
// send; a connected channel that fails is logged, never surfaced, because the
// local mutation already stands.
func (s *Session) publish(doc document.Document) {
	if err := s.channel.Publish(doc); err != nil {
		s.logger.Warn("Failed to publish snapshot",
			"project_id", s.projectID,
			"error", err)
	}
}

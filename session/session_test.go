package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specboard/specboard/document"
	"github.com/specboard/specboard/realtime"
)

type fakeLoader struct {
	doc document.Document
	err error
}

func (f *fakeLoader) GetAPISpec(_ context.Context, _ string) (document.Document, error) {
	return f.doc, f.err
}

// editRecorder collects snapshots published to a project's edit destination.
type editRecorder struct {
	mu   sync.Mutex
	docs []document.Document
}

func (r *editRecorder) record(_ string, data []byte) {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return
	}
	r.mu.Lock()
	r.docs = append(r.docs, doc)
	r.mu.Unlock()
}

func (r *editRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func (r *editRecorder) last() document.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[len(r.docs)-1]
}

// startRelay runs the server-side fan-out on the broker so published edits
// come back as updates, as they do against a real deployment.
func startRelay(t *testing.T, broker *realtime.MemoryBroker) {
	t.Helper()
	relay := realtime.NewRelay(broker.Transport(), realtime.NewMemorySnapshotStore(), slog.Default())
	require.NoError(t, relay.Start(context.Background()))
	t.Cleanup(func() {
		_ = relay.Stop()
	})
}

// newTestSession wires a session to an in-memory broker and records everything
// it publishes.
func newTestSession(t *testing.T, projectID string, loader Loader, opts ...Option) (*Session, *editRecorder) {
	t.Helper()

	broker := realtime.NewMemoryBroker()
	startRelay(t, broker)
	recorder := &editRecorder{}
	observer := broker.Transport()
	_, err := observer.Subscribe(realtime.EditSubject(projectID), recorder.record)
	require.NoError(t, err)

	var s *Session
	channel := realtime.NewChannel(projectID, broker.Dialer(), func(doc document.Document) {
		s.ApplyRemote(doc)
	})
	s = New(projectID, loader, channel, opts...)

	require.NoError(t, channel.Connect(context.Background()))
	t.Cleanup(s.Close)
	return s, recorder
}

func TestLoadSetsInitialSnapshot(t *testing.T) {
	doc := document.AddRow(document.New())
	s, recorder := newTestSession(t, "p1", &fakeLoader{doc: doc})

	s.Load(context.Background())

	got := s.Document()
	assert.True(t, got.Equal(&doc))
	assert.Equal(t, 0, recorder.count(), "loading must not publish")
}

func TestLoadFailureLeavesEmptyDocument(t *testing.T) {
	s, _ := newTestSession(t, "p1", &fakeLoader{err: errors.New("service down")})

	s.Load(context.Background())

	got := s.Document()
	assert.Equal(t, 0, got.Rows())
}

func TestMutationsPublishFullSnapshot(t *testing.T) {
	s, recorder := newTestSession(t, "p1", &fakeLoader{doc: document.New()})

	doc := s.AddRow()
	assert.Equal(t, 1, doc.Rows())
	assert.Equal(t, "GET", doc.Method[0])

	_, err := s.SetCell("uri", 0, "/login")
	require.NoError(t, err)

	require.Equal(t, 2, recorder.count())
	last := recorder.last()
	assert.Equal(t, "/login", last.URI[0])
	assert.Equal(t, 1, last.Rows())
}

func TestDeleteRowError(t *testing.T) {
	s, recorder := newTestSession(t, "p1", &fakeLoader{doc: document.New()})

	_, err := s.DeleteRow(0)
	assert.ErrorIs(t, err, document.ErrIndexOutOfRange)
	assert.Equal(t, 0, recorder.count(), "failed mutations must not publish")
}

func TestDisconnectedMutationStaysLocal(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	var s *Session
	channel := realtime.NewChannel("p1", broker.Dialer(), func(doc document.Document) {
		s.ApplyRemote(doc)
	})
	s = New("p1", &fakeLoader{doc: document.New()}, channel)

	// Never connected: the mutation applies locally without error.
	doc := s.AddRow()
	assert.Equal(t, 1, doc.Rows())
	got := s.Document()
	assert.Equal(t, 1, got.Rows())
}

func TestRemoteSnapshotReplacesWholesale(t *testing.T) {
	s, _ := newTestSession(t, "p1", &fakeLoader{doc: document.New()})
	s.AddRow()

	remote := document.New()
	remote = document.AddRow(remote)
	remote = document.AddRow(remote)
	remote.Category[0] = "auth"

	s.ApplyRemote(remote)

	got := s.Document()
	assert.Equal(t, 2, got.Rows())
	assert.Equal(t, "auth", got.Category[0])
}

func TestTwoSessionsConverge(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	startRelay(t, broker)

	newPeer := func() *Session {
		var s *Session
		channel := realtime.NewChannel("p1", broker.Dialer(), func(doc document.Document) {
			s.ApplyRemote(doc)
		})
		s = New("p1", &fakeLoader{doc: document.New()}, channel)
		require.NoError(t, channel.Connect(context.Background()))
		t.Cleanup(s.Close)
		return s
	}

	a := newPeer()
	b := newPeer()

	// A session's own publishes echo back through the topic; the wholesale
	// replace makes that a no-op. B adopts A's snapshot.
	a.AddRow()
	_, err := a.SetCell("functionName", 0, "login")
	require.NoError(t, err)

	got := b.Document()
	assert.Equal(t, 1, got.Rows())
	assert.Equal(t, "login", got.FunctionName[0])
	aDoc := a.Document()
	assert.True(t, aDoc.Equal(&got))
}

type gatedGenerator struct {
	mu      sync.Mutex
	calls   int
	first   document.Document
	second  document.Document
	started chan struct{}
	release chan struct{}
}

func (g *gatedGenerator) Generate(_ context.Context, _, _ string) (document.Document, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()

	if call == 1 {
		close(g.started)
		<-g.release
		return g.first.Clone(), nil
	}
	return g.second.Clone(), nil
}

func TestStaleGenerationDiscarded(t *testing.T) {
	first := document.AddRow(document.New())
	first.Category[0] = "stale"
	second := document.AddRow(document.New())
	second.Category[0] = "fresh"

	gen := &gatedGenerator{
		first:   first,
		second:  second,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, recorder := newTestSession(t, "p1", &fakeLoader{doc: document.New()}, WithGenerator(gen))

	done := make(chan document.Document, 1)
	go func() {
		doc, err := s.Generate(context.Background(), "make it")
		if err != nil {
			t.Error(err)
		}
		done <- doc
	}()

	<-gen.started

	// Second request overtakes the first.
	doc, err := s.Generate(context.Background(), "make it again")
	require.NoError(t, err)
	assert.Equal(t, "fresh", doc.Category[0])

	close(gen.release)
	select {
	case stale := <-done:
		assert.Equal(t, "fresh", stale.Category[0], "stale result must not surface")
	case <-time.After(5 * time.Second):
		t.Fatal("first generation never returned")
	}

	current := s.Document()
	assert.Equal(t, "fresh", current.Category[0])
	assert.Equal(t, 1, recorder.count(), "only the winning generation publishes")
}

func TestAdoptGeneratedStaleSequence(t *testing.T) {
	s, _ := newTestSession(t, "p1", &fakeLoader{doc: document.New()})

	stale := document.AddRow(document.New())
	stale.Category[0] = "stale"
	fresh := document.AddRow(document.New())
	fresh.Category[0] = "fresh"

	first := s.genSeq.Add(1)
	second := s.genSeq.Add(1)

	// The newer result lands; the superseded one must not unseat it even
	// though its own sequence check had not run yet when the newer one did.
	assert.True(t, s.adoptGenerated(second, fresh))
	assert.False(t, s.adoptGenerated(first, stale))

	got := s.Document()
	assert.Equal(t, "fresh", got.Category[0])
}

type failingGenerator struct{}

func (failingGenerator) Generate(_ context.Context, _, _ string) (document.Document, error) {
	return document.Document{}, errors.New("model unavailable")
}

func TestGenerateFailureKeepsDocument(t *testing.T) {
	s, recorder := newTestSession(t, "p1", &fakeLoader{doc: document.New()}, WithGenerator(failingGenerator{}))
	s.AddRow()

	_, err := s.Generate(context.Background(), "make it")
	assert.Error(t, err)
	got := s.Document()
	assert.Equal(t, 1, got.Rows())
	assert.Equal(t, 1, recorder.count(), "failed generation must not publish")
}

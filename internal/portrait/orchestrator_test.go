package portrait

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"

	"portraitstudio/internal/domain"
	"portraitstudio/internal/notify"
	imageprovider "portraitstudio/internal/providers/image"
)

type stubGenerator struct {
	mu       sync.Mutex
	calls    int
	requests []imageprovider.Request
	resp     *imageprovider.Response
	err      error
	// started is signalled once the call is in flight; release unblocks it.
	started chan struct{}
	release chan struct{}
	onCall  func()
}

func (s *stubGenerator) GenerateImage(ctx context.Context, req imageprovider.Request) (*imageprovider.Response, error) {
	s.mu.Lock()
	s.calls++
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.onCall != nil {
		s.onCall()
	}
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	return s.resp, s.err
}

func (s *stubGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type trackingBody struct {
	io.Reader
	closed int
}

func (b *trackingBody) Close() error {
	b.closed++
	return nil
}

type stubFetcher struct {
	calls int
	urls  []string
	data  []byte
	err   error
	body  *trackingBody
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	f.calls++
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	f.body = &trackingBody{Reader: bytes.NewReader(f.data)}
	return f.body, nil
}

type stubSaver struct {
	calls int
	names []string
	data  []byte
	err   error
}

func (s *stubSaver) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	s.calls++
	s.names = append(s.names, name)
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.data = data
	return "/downloads/" + name, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []notify.Toast
}

func (n *recordingNotifier) Notify(ctx context.Context, t notify.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, t)
}

func (n *recordingNotifier) keys() []notify.Key {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Key, len(n.toasts))
	for i, t := range n.toasts {
		out[i] = t.Key
	}
	return out
}

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) CaptureException(err error) *sentry.EventID {
	r.errs = append(r.errs, err)
	return nil
}

type fixture struct {
	orch     *Orchestrator
	gen      *stubGenerator
	fetcher  *stubFetcher
	saver    *stubSaver
	notifier *recordingNotifier
	reporter *recordingReporter
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gen:      &stubGenerator{},
		fetcher:  &stubFetcher{data: samplePNG(t)},
		saver:    &stubSaver{},
		notifier: &recordingNotifier{},
		reporter: &recordingReporter{},
		now:      time.UnixMilli(1735689600123),
	}
	orch, err := New(Options{
		Generator: f.gen,
		Fetcher:   f.fetcher,
		Saver:     f.saver,
		Notifier:  f.notifier,
		Reporter:  f.reporter,
		Clock:     func() time.Time { return f.now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.orch = orch
	return f
}

func (f *fixture) signIn() {
	f.orch.SetUser(&domain.User{ID: "user-1", Email: "user@example.com"})
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func okResponse(url string) *imageprovider.Response {
	return &imageprovider.Response{Data: []imageprovider.Datum{{URL: url}}}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without generator")
	}
	if _, err := New(Options{Generator: &stubGenerator{}}); err == nil {
		t.Fatal("expected error without fetcher")
	}
	if _, err := New(Options{Generator: &stubGenerator{}, Fetcher: &stubFetcher{}}); err == nil {
		t.Fatal("expected error without saver")
	}
}

func TestNewStartsIdleWithDefaults(t *testing.T) {
	f := newFixture(t)
	snap := f.orch.Snapshot()
	if snap.Phase != domain.PhaseIdle {
		t.Fatalf("phase = %q, want idle", snap.Phase)
	}
	if snap.Selection != domain.DefaultSelection() {
		t.Fatalf("selection = %#v", snap.Selection)
	}
	if snap.Result != nil || snap.User != nil {
		t.Fatalf("expected no result and no user, got %#v", snap)
	}
}

func TestUpdateField(t *testing.T) {
	f := newFixture(t)
	if err := f.orch.UpdateField(domain.FieldClothing, "traditional kimono"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if got := f.orch.Selection().Clothing; got != "traditional kimono" {
		t.Fatalf("clothing = %q", got)
	}
	if err := f.orch.UpdateField(domain.Field("hat"), "beret"); !errors.Is(err, domain.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if f.gen.callCount() != 0 {
		t.Fatal("UpdateField must not trigger generation")
	}
}

func TestGenerateWithoutUserIsNoop(t *testing.T) {
	f := newFixture(t)
	f.gen.resp = okResponse("https://x/img.png")

	if got := f.orch.Generate(context.Background()); got != domain.OutcomeUnauthenticated {
		t.Fatalf("outcome = %q, want unauthenticated", got)
	}
	if f.gen.callCount() != 0 {
		t.Fatalf("generator calls = %d, want 0", f.gen.callCount())
	}
	if f.orch.Phase() != domain.PhaseIdle {
		t.Fatalf("phase = %q, want idle", f.orch.Phase())
	}
	if len(f.notifier.keys()) != 0 {
		t.Fatalf("unexpected toasts: %v", f.notifier.keys())
	}
}

func TestGeneratePhaseTransitions(t *testing.T) {
	tests := []struct {
		name    string
		resp    *imageprovider.Response
		err     error
		outcome domain.Outcome
	}{
		{name: "success", resp: okResponse("https://x/img.png"), outcome: domain.OutcomeSucceeded},
		{name: "empty", resp: &imageprovider.Response{}, outcome: domain.OutcomeEmpty},
		{name: "failure", err: errors.New("service unavailable"), outcome: domain.OutcomeFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.signIn()
			f.gen.resp = tc.resp
			f.gen.err = tc.err
			var during domain.Phase
			f.gen.onCall = func() { during = f.orch.Phase() }

			got := f.orch.Generate(context.Background())
			if got != tc.outcome {
				t.Fatalf("outcome = %q, want %q", got, tc.outcome)
			}
			if during != domain.PhaseGenerating {
				t.Fatalf("phase during call = %q, want generating", during)
			}
			if after := f.orch.Phase(); after != domain.PhaseIdle {
				t.Fatalf("phase after call = %q, want idle", after)
			}
		})
	}
}

func TestGenerateSuccessStoresResult(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.gen.resp = okResponse("https://x/img.png")

	f.orch.Generate(context.Background())

	got := f.orch.Result()
	if got == nil || *got != (domain.Result{URL: "https://x/img.png"}) {
		t.Fatalf("result = %#v", got)
	}
	keys := f.notifier.keys()
	if len(keys) != 1 || keys[0] != notify.KeyGenerateSuccess {
		t.Fatalf("toasts = %v", keys)
	}
	if len(f.gen.requests) != 1 {
		t.Fatalf("requests = %d", len(f.gen.requests))
	}
	req := f.gen.requests[0]
	if req.Size != "1024x1024" || req.N != 1 || req.Prompt != BuildPrompt(domain.DefaultSelection()) {
		t.Fatalf("unexpected request: %#v", req)
	}
}

func TestGenerateEmptyKeepsPreviousResult(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.gen.resp = okResponse("https://x/first.png")
	f.orch.Generate(context.Background())

	for _, resp := range []*imageprovider.Response{
		{Data: []imageprovider.Datum{}},
		{Data: []imageprovider.Datum{{URL: "  "}}},
		nil,
	} {
		f.gen.resp = resp
		if got := f.orch.Generate(context.Background()); got != domain.OutcomeEmpty {
			t.Fatalf("outcome = %q, want empty", got)
		}
		if got := f.orch.Result(); got == nil || got.URL != "https://x/first.png" {
			t.Fatalf("result changed to %#v", got)
		}
	}
	if keys := f.notifier.keys(); len(keys) != 1 {
		t.Fatalf("empty outcomes must not notify, toasts = %v", keys)
	}
}

func TestGenerateFailureKeepsResultAndNotifies(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.gen.resp = okResponse("https://x/first.png")
	f.orch.Generate(context.Background())

	boom := errors.New("network down")
	f.gen.resp, f.gen.err = nil, boom
	if got := f.orch.Generate(context.Background()); got != domain.OutcomeFailed {
		t.Fatalf("outcome = %q, want failed", got)
	}
	if got := f.orch.Result(); got == nil || got.URL != "https://x/first.png" {
		t.Fatalf("result changed to %#v", got)
	}
	keys := f.notifier.keys()
	if len(keys) != 2 || keys[1] != notify.KeyGenerateFailure {
		t.Fatalf("toasts = %v", keys)
	}
	if len(f.reporter.errs) != 1 || !errors.Is(f.reporter.errs[0], boom) || !errors.Is(f.reporter.errs[0], domain.ErrGenerationFailed) {
		t.Fatalf("reported errors = %v", f.reporter.errs)
	}
}

func TestGenerateRejectsReentry(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.gen.resp = okResponse("https://x/img.png")
	f.gen.started = make(chan struct{})
	f.gen.release = make(chan struct{})

	done := make(chan domain.Outcome)
	go func() { done <- f.orch.Generate(context.Background()) }()
	<-f.gen.started

	if got := f.orch.Generate(context.Background()); got != domain.OutcomeBusy {
		t.Fatalf("second outcome = %q, want busy", got)
	}
	close(f.gen.release)
	if got := <-done; got != domain.OutcomeSucceeded {
		t.Fatalf("first outcome = %q, want succeeded", got)
	}
	if f.gen.callCount() != 1 {
		t.Fatalf("generator calls = %d, want 1", f.gen.callCount())
	}
}

func TestSelectionChangeDuringGenerationDoesNotAlterPrompt(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.gen.resp = okResponse("https://x/img.png")
	f.gen.started = make(chan struct{})
	f.gen.release = make(chan struct{})
	want := BuildPrompt(domain.DefaultSelection())

	done := make(chan domain.Outcome)
	go func() { done <- f.orch.Generate(context.Background()) }()
	<-f.gen.started

	if err := f.orch.UpdateField(domain.FieldStyle, "watercolor illustration"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	close(f.gen.release)
	<-done

	if got := f.gen.requests[0].Prompt; got != want {
		t.Fatalf("submitted prompt changed:\n got: %q\nwant: %q", got, want)
	}
	if f.orch.Selection().Style != "watercolor illustration" {
		t.Fatal("selection update was lost")
	}

	f.gen.started, f.gen.release = nil, nil
	f.orch.Generate(context.Background())
	if got := f.gen.requests[1].Prompt; !strings.Contains(got, "watercolor illustration portrait") {
		t.Fatalf("next prompt should use the new style, got %q", got)
	}
}

func TestGenerateRecoversPhaseOnPanic(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.gen.onCall = func() { panic("provider bug") }

	func() {
		defer func() { _ = recover() }()
		f.orch.Generate(context.Background())
	}()
	if f.orch.Phase() != domain.PhaseIdle {
		t.Fatalf("phase = %q, want idle", f.orch.Phase())
	}
}

func TestSignOutKeepsResult(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.gen.resp = okResponse("https://x/img.png")
	f.orch.Generate(context.Background())

	f.orch.SetUser(nil)
	if f.orch.User() != nil {
		t.Fatal("expected user to be cleared")
	}
	if f.orch.Result() == nil {
		t.Fatal("result should survive sign-out")
	}
	if got := f.orch.Generate(context.Background()); got != domain.OutcomeUnauthenticated {
		t.Fatalf("outcome = %q, want unauthenticated", got)
	}
}

func TestWatchReceivesSnapshots(t *testing.T) {
	f := newFixture(t)
	var phases []domain.Phase
	unwatch := f.orch.Watch(func(s Snapshot) { phases = append(phases, s.Phase) })

	f.signIn()
	f.gen.resp = okResponse("https://x/img.png")
	f.orch.Generate(context.Background())
	unwatch()
	_ = f.orch.UpdateField(domain.FieldPose, "feeding birds by a pond")

	want := []domain.Phase{domain.PhaseIdle, domain.PhaseGenerating, domain.PhaseIdle}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", phases, want)
		}
	}
}

func TestWatchEndsOnCurrentPhaseAfterMidGenerationUpdate(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.gen.resp = okResponse("https://x/img.png")
	f.gen.started = make(chan struct{})
	f.gen.release = make(chan struct{})

	var (
		mu       sync.Mutex
		last     domain.Phase
		held     bool
		inUpdate = make(chan struct{})
		resume   = make(chan struct{})
	)
	unwatch := f.orch.Watch(func(s Snapshot) {
		if s.Selection.Style == "anime-style" && s.Phase == domain.PhaseGenerating {
			mu.Lock()
			first := !held
			held = true
			mu.Unlock()
			if first {
				close(inUpdate)
				<-resume
			}
		}
		mu.Lock()
		last = s.Phase
		mu.Unlock()
	})
	defer unwatch()

	done := make(chan domain.Outcome)
	go func() { done <- f.orch.Generate(context.Background()) }()
	<-f.gen.started

	updated := make(chan error)
	go func() { updated <- f.orch.UpdateField(domain.FieldStyle, "anime-style") }()
	<-inUpdate

	close(f.gen.release)
	// Give Generate time to reach its final delivery while the update's
	// delivery is still in progress.
	time.Sleep(20 * time.Millisecond)
	close(resume)

	if err := <-updated; err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if got := <-done; got != domain.OutcomeSucceeded {
		t.Fatalf("outcome = %q", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if phase := f.orch.Phase(); last != phase {
		t.Fatalf("last watched phase = %q, orchestrator phase = %q", last, phase)
	}
	if last != domain.PhaseIdle {
		t.Fatalf("last watched phase = %q, want idle", last)
	}
}

package portrait

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portraitstudio/internal/domain"
	"portraitstudio/internal/infra"
	"portraitstudio/internal/notify"
	"portraitstudio/internal/providers/image"
)

// Fetcher retrieves the raw bytes behind a result location.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Saver persists a downloaded portrait under the given file name and returns
// where it ended up.
type Saver interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Generator image.Generator
	Fetcher   Fetcher
	Saver     Saver
	Notifier  notify.Notifier
	Reporter  infra.ErrorReporter
	Logger    *infra.Logger
	Clock     func() time.Time
}

// Snapshot is a consistent copy of the orchestrator state.
type Snapshot struct {
	Selection domain.Selection `json:"selection"`
	Phase     domain.Phase     `json:"phase"`
	Result    *domain.Result   `json:"result"`
	User      *domain.User     `json:"user"`
}

// Orchestrator owns the portrait selection, turns it into generation
// requests and tracks the single retained result.
type Orchestrator struct {
	generator image.Generator
	fetcher   Fetcher
	saver     Saver
	notifier  notify.Notifier
	reporter  infra.ErrorReporter
	logger    infra.Logger
	clock     func() time.Time

	mu        sync.Mutex
	selection domain.Selection
	phase     domain.Phase
	result    *domain.Result
	user      *domain.User

	// deliverMu orders fan-out so watchers see snapshots in state order.
	deliverMu sync.Mutex
	watchMu   sync.Mutex
	watchers  map[int]func(Snapshot)
	nextID    int
}

// New creates an idle orchestrator with the default selection and no user.
func New(opts Options) (*Orchestrator, error) {
	if opts.Generator == nil {
		return nil, errors.New("portrait: generator is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("portrait: fetcher is required")
	}
	if opts.Saver == nil {
		return nil, errors.New("portrait: saver is required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		generator: opts.Generator,
		fetcher:   opts.Fetcher,
		saver:     opts.Saver,
		notifier:  notifier,
		reporter:  opts.Reporter,
		logger:    logger.With().Str("component", "portrait").Logger(),
		clock:     clock,
		selection: domain.DefaultSelection(),
		phase:     domain.PhaseIdle,
		watchers:  make(map[int]func(Snapshot)),
	}, nil
}

// SetUser replaces the signed-in user. A nil user signs the studio out; the
// retained result is kept.
func (o *Orchestrator) SetUser(u *domain.User) {
	o.mu.Lock()
	if u == nil || u.IsZero() {
		o.user = nil
	} else {
		cp := *u
		o.user = &cp
	}
	o.mu.Unlock()
	o.changed()
}

// UpdateField overwrites one selection field. The value is not checked
// against the option list; only the field identifier must be known.
func (o *Orchestrator) UpdateField(field domain.Field, value string) error {
	o.mu.Lock()
	next, err := o.selection.With(field, value)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.selection = next
	o.mu.Unlock()
	o.logger.Debug().Str("field", string(field)).Str("value", value).Msg("selection updated")
	o.changed()
	return nil
}

// Generate builds the prompt from the current selection and requests one
// image. At most one generation runs at a time; the phase is back to idle
// on every exit path.
func (o *Orchestrator) Generate(ctx context.Context) domain.Outcome {
	o.mu.Lock()
	if o.user == nil {
		o.mu.Unlock()
		return domain.OutcomeUnauthenticated
	}
	if o.phase == domain.PhaseGenerating {
		o.mu.Unlock()
		return domain.OutcomeBusy
	}
	o.phase = domain.PhaseGenerating
	req := BuildRequest(o.selection)
	userID := o.user.ID
	o.mu.Unlock()
	o.changed()

	defer func() {
		o.mu.Lock()
		o.phase = domain.PhaseIdle
		o.mu.Unlock()
		o.changed()
	}()

	log := o.logger.With().Str("user_id", userID).Logger()
	log.Info().Str("prompt", req.Prompt).Msg("generating portrait")

	resp, err := o.generator.GenerateImage(ctx, req)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		log.Error().Err(err).Msg("portrait generation failed")
		o.report(err)
		o.notifier.Notify(ctx, notify.Failure(notify.KeyGenerateFailure))
		return domain.OutcomeFailed
	}

	first, ok := resp.First()
	if !ok {
		log.Warn().Err(domain.ErrEmptyResult).Msg("generator returned no usable image")
		return domain.OutcomeEmpty
	}

	o.mu.Lock()
	o.result = &domain.Result{URL: first.URL}
	o.mu.Unlock()
	log.Info().Msg("portrait generated")
	o.notifier.Notify(ctx, notify.Success(notify.KeyGenerateSuccess))
	return domain.OutcomeSucceeded
}

// Selection returns the current selection.
func (o *Orchestrator) Selection() domain.Selection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selection
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() domain.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Result returns the retained result, or nil.
func (o *Orchestrator) Result() *domain.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return nil
	}
	cp := *o.result
	return &cp
}

// User returns the signed-in user, or nil.
func (o *Orchestrator) User() *domain.User {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.user == nil {
		return nil
	}
	cp := *o.user
	return &cp
}

// Snapshot returns a consistent copy of the whole state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{Selection: o.selection, Phase: o.phase}
	if o.result != nil {
		r := *o.result
		s.Result = &r
	}
	if o.user != nil {
		u := *o.user
		s.User = &u
	}
	return s
}

// Watch registers fn to receive a snapshot after every state change and
// returns the function that removes it. Deliveries are serialized and the
// last one reflects the current state. fn must not change the orchestrator.
func (o *Orchestrator) Watch(fn func(Snapshot)) func() {
	o.watchMu.Lock()
	id := o.nextID
	o.nextID++
	o.watchers[id] = fn
	o.watchMu.Unlock()
	return func() {
		o.watchMu.Lock()
		delete(o.watchers, id)
		o.watchMu.Unlock()
	}
}

func (o *Orchestrator) changed() {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	o.watchMu.Lock()
	if len(o.watchers) == 0 {
		o.watchMu.Unlock()
		return
	}
	fns := make([]func(Snapshot), 0, len(o.watchers))
	for _, fn := range o.watchers {
		fns = append(fns, fn)
	}
	o.watchMu.Unlock()

	snap := o.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

func (o *Orchestrator) report(err error) {
	if o.reporter != nil {
		o.reporter.CaptureException(err)
	}
}

package client

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pthm/hxboundary"
)

// RootComponentManager resolves root components when the page manages them
// dynamically instead of from a fixed list of discovered descriptors.
type RootComponentManager interface {
	ResolveRootComponent(sequence, componentID int) (*Descriptor, error)
}

// Element is where a resolved component attaches. Exactly one field is set:
// Container for a root added by script, Descriptor for a root found in the
// document.
type Element struct {
	Container  string
	Descriptor *Descriptor
}

// Resolution paths reported to metrics.
const (
	pathPending  = "pending"
	pathSequence = "sequence"
	pathManager  = "manager"
	pathInvalid  = "invalid"
)

// Option configures a SessionDescriptor.
type Option func(*SessionDescriptor)

// WithPendingRoots shares a set of script-added roots with the session.
func WithPendingRoots(p *PendingRoots) Option {
	return func(s *SessionDescriptor) {
		s.pending = p
	}
}

// WithMetrics records resolutions on m.
func WithMetrics(m *hxboundary.Metrics) Option {
	return func(s *SessionDescriptor) {
		s.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *SessionDescriptor) {
		s.logger = l
	}
}

// SessionDescriptor tracks the session-hosted boundaries of one page from
// discovery until the session host has attached them.
//
// It is safe for concurrent use.
type SessionDescriptor struct {
	mu         sync.Mutex
	id         string
	components []*Descriptor
	manager    RootComponentManager
	pending    *PendingRoots
	metrics    *hxboundary.Metrics
	logger     *slog.Logger

	// ApplicationState is opaque state persisted by the server during
	// prerendering and handed back when the session starts.
	ApplicationState string
}

// NewSessionDescriptor creates a session over the server descriptors found
// in a document.
func NewSessionDescriptor(components []*Descriptor, appState string, opts ...Option) *SessionDescriptor {
	s := &SessionDescriptor{components: components, ApplicationState: appState}
	s.apply(opts)
	return s
}

// NewManagedSession creates a session whose roots are resolved by manager.
func NewManagedSession(manager RootComponentManager, appState string, opts ...Option) *SessionDescriptor {
	s := &SessionDescriptor{manager: manager, ApplicationState: appState}
	s.apply(opts)
	return s
}

func (s *SessionDescriptor) apply(opts []Option) {
	for _, opt := range opts {
		opt(s)
	}
	if s.pending == nil {
		s.pending = NewPendingRoots()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
}

// Pending returns the script-added roots consulted by Resolve.
func (s *SessionDescriptor) Pending() *PendingRoots {
	return s.pending
}

// Initialize records the id the session host assigned. A session is
// initialized once, with a non-empty id.
func (s *SessionDescriptor) Initialize(id string) error {
	if id == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return fmt.Errorf("%w: session %q", ErrAlreadyInitialized, s.id)
	}
	s.id = id
	s.logger.Debug("session initialized", slog.String("session", id), slog.Int("components", len(s.components)))
	return nil
}

// ID returns the session id, or ErrNotInitialized.
func (s *SessionDescriptor) ID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == "" {
		return "", ErrNotInitialized
	}
	return s.id, nil
}

// StartRecords returns the records sent to the session host when the
// session starts. Managed sessions send none; their roots are added later.
func (s *SessionDescriptor) StartRecords() ([]hxboundary.StartRecord, error) {
	records := make([]hxboundary.StartRecord, 0, len(s.components))
	if s.manager != nil {
		return records, nil
	}
	for _, d := range s.components {
		rec, err := d.Record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// StartPayload is StartRecords encoded as the JSON array the session host
// expects.
func (s *SessionDescriptor) StartPayload() ([]byte, error) {
	records, err := s.StartRecords()
	if err != nil {
		return nil, err
	}
	return sonic.ConfigStd.Marshal(records)
}

// Resolve finds where the component the session host calls
// sequenceOrIdentifier attaches.
//
// A pending script-added root registered under the identifier is claimed
// first and never resolves again. Otherwise the identifier must be a
// non-negative sequence number: the sequence sealed in a discovered
// descriptor, or a root known to the RootComponentManager. Anything else
// fails with ErrInvalidReference.
func (s *SessionDescriptor) Resolve(sequenceOrIdentifier string, componentID int) (Element, error) {
	el, path, err := s.resolve(sequenceOrIdentifier, componentID)
	s.metrics.ObserveResolution(path, err)
	if err != nil {
		s.logger.Warn("boundary resolution failed",
			slog.String("reference", sequenceOrIdentifier),
			slog.Int("component", componentID),
			slog.Any("error", err),
		)
	}
	return el, err
}

func (s *SessionDescriptor) resolve(ref string, componentID int) (Element, string, error) {
	if container, ok := s.pending.Take(ref); ok {
		return Element{Container: container}, pathPending, nil
	}

	sequence, err := strconv.Atoi(ref)
	if err != nil || sequence < 0 {
		return Element{}, pathInvalid, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		d    *Descriptor
		path string
	)
	if s.manager != nil {
		path = pathManager
		d, err = s.manager.ResolveRootComponent(sequence, componentID)
		if err != nil {
			return Element{}, path, fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
		}
	} else {
		path = pathSequence
		d = s.lookup(sequence)
	}
	if d == nil {
		return Element{}, path, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	if d.state < Resolved {
		if err := d.Advance(Resolved); err != nil {
			return Element{}, path, err
		}
	}
	return Element{Descriptor: d}, path, nil
}

// Attach marks the descriptor with the given sequence as owned by an
// interactive component.
func (s *SessionDescriptor) Attach(sequence int) error {
	return s.advance(sequence, Attached)
}

// Detach marks the descriptor's component as disposed.
func (s *SessionDescriptor) Detach(sequence int) error {
	return s.advance(sequence, Detached)
}

func (s *SessionDescriptor) advance(sequence int, next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.lookup(sequence)
	if d == nil {
		return fmt.Errorf("%w: %d", ErrInvalidReference, sequence)
	}
	return d.Advance(next)
}

// lookup finds the descriptor carrying sequence. Callers hold s.mu.
func (s *SessionDescriptor) lookup(sequence int) *Descriptor {
	i := slices.IndexFunc(s.components, func(d *Descriptor) bool {
		return d.Sequence == sequence
	})
	if i < 0 {
		return nil
	}
	return s.components[i]
}

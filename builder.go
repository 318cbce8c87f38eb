package adminsession

import (
	"errors"

	"github.com/digistarclub/adminsession/vault"
)

// Builder assembles a [Manager]. Collaborators are attached with the With*
// methods; Build validates the configuration and wires the dispatcher.
// Construction is allocation-only: no I/O happens until Initialize.
type Builder struct {
	config Config

	transport Transport
	store     vault.Store
	nav       Navigator
	clock     Clock
	sink      EventSink

	built bool
}

// New returns a Builder carrying the default configuration.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithTransport attaches the credential-exchange collaborator. Required.
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// WithVault attaches the persistence store. Required.
func (b *Builder) WithVault(s vault.Store) *Builder {
	b.store = s
	return b
}

// WithNavigator attaches the navigation collaborator. Optional; defaults to
// a no-op.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.nav = n
	return b
}

// WithClock replaces the wall clock, for tests driving expiry with a
// simulated clock. Optional.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithEventSink attaches the consumer of session events. Optional; without
// one, events are dispatched to a no-op sink.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.sink = sink
	return b
}

// Build validates and assembles the Manager. A Builder builds once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.transport == nil {
		return nil, errors.New("transport is required")
	}
	if b.store == nil {
		return nil, errors.New("vault store is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	nav := b.nav
	if nav == nil {
		nav = noopNavigator{}
	}
	clk := b.clock
	if clk == nil {
		clk = realClock{}
	}

	m := &Manager{
		config:    b.config,
		transport: b.transport,
		vault:     b.store,
		nav:       nav,
		clock:     clk,
		metrics:   newMetrics(),
		events:    newEventDispatcher(b.config.Events, b.sink),
		state:     StateUninitialized,
	}

	b.built = true
	return m, nil
}

package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition may proceed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at the given state
	Build(initial State) StateMachine
}

// StateConfiguration configures the outgoing transitions of one state
type StateConfiguration interface {
	Permit(trigger Trigger, to State) StateConfiguration
	PermitIf(trigger Trigger, to State, guard GuardFunc) StateConfiguration
}

type transition struct {
	to    State
	guard GuardFunc
}

type stateConfig struct {
	transitions map[Trigger][]transition
}

type stateMachineBuilder struct {
	lifecycle string
	configs   map[State]*stateConfig
}

type stateMachine struct {
	lifecycle string
	current   State
	configs   map[State]*stateConfig
}

// NewBuilder creates a builder for the named lifecycle. The name prefixes transition errors.
func NewBuilder(lifecycle string) StateMachineBuilder {
	return &stateMachineBuilder{
		lifecycle: lifecycle,
		configs:   make(map[State]*stateConfig),
	}
}

func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	cfg, ok := b.configs[state]
	if !ok {
		cfg = &stateConfig{transitions: make(map[Trigger][]transition)}
		b.configs[state] = cfg
	}
	return cfg
}

// Build shares the configured transitions; configurations are not mutated after build.
func (b *stateMachineBuilder) Build(initial State) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}
	return &stateMachine{
		lifecycle: b.lifecycle,
		current:   initial,
		configs:   b.configs,
	}
}

func (c *stateConfig) Permit(trigger Trigger, to State) StateConfiguration {
	return c.PermitIf(trigger, to, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, to State, guard GuardFunc) StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	c.transitions[trigger] = append(c.transitions[trigger], transition{to: to, guard: guard})
	return c
}

func (m *stateMachine) State() State {
	return m.current
}

func (m *stateMachine) CanFire(trigger Trigger) bool {
	cfg, ok := m.configs[m.current]
	if !ok {
		return false
	}
	return len(cfg.transitions[trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	cfg, ok := m.configs[m.current]
	if !ok || len(cfg.transitions[trigger]) == 0 {
		return fmt.Errorf("%w: %s cannot %s from %s", ErrInvalidTransition, m.lifecycle, trigger, m.current)
	}

	for _, t := range cfg.transitions[trigger] {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: %s %s from %s", ErrGuardFailed, m.lifecycle, trigger, m.current)
}

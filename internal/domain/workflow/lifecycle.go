package workflow

import (
	"context"
	"sync"
)

// Lifecycles are built on first use, never during package initialization.
var (
	saleLifecycle       = sync.OnceValue(newSaleBuilder)
	settlementLifecycle = sync.OnceValue(newSettlementBuilder)
	invoiceLifecycle    = sync.OnceValue(newInvoiceBuilder)
)

// CREATED -> MAPPED -> CLOSED. Re-importing the mapping keeps a sale MAPPED.
func newSaleBuilder() StateMachineBuilder {
	b := NewBuilder("sale")
	b.Configure(StateCreated).
		Permit(TriggerImportMapping, StateMapped)
	b.Configure(StateMapped).
		Permit(TriggerImportMapping, StateMapped).
		Permit(TriggerClose, StateClosed)
	return b
}

// PENDING -> EXPORTED -> PAID
func newSettlementBuilder() StateMachineBuilder {
	b := NewBuilder("settlement")
	b.Configure(StatePending).
		Permit(TriggerExport, StateExported)
	b.Configure(StateExported).
		Permit(TriggerMarkPaid, StatePaid)
	return b
}

// DRAFT -> ISSUED
func newInvoiceBuilder() StateMachineBuilder {
	b := NewBuilder("invoice")
	b.Configure(StateDraft).
		Permit(TriggerIssue, StateIssued)
	return b
}

// SaleMachine returns the sale lifecycle positioned at the given state
func SaleMachine(current State) StateMachine {
	return saleLifecycle().Build(current)
}

// SettlementMachine returns the settlement lifecycle positioned at the given state
func SettlementMachine(current State) StateMachine {
	return settlementLifecycle().Build(current)
}

// InvoiceMachine returns the invoice lifecycle positioned at the given state
func InvoiceMachine(current State) StateMachine {
	return invoiceLifecycle().Build(current)
}

// Next fires trigger on m and returns the state it ends in
func Next(ctx context.Context, m StateMachine, trigger Trigger) (State, error) {
	if err := m.Fire(ctx, trigger); err != nil {
		return m.State(), err
	}
	return m.State(), nil
}

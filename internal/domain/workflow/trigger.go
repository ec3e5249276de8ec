package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerImportMapping Trigger = "IMPORT_MAPPING"
	TriggerClose         Trigger = "CLOSE"
	TriggerExport        Trigger = "EXPORT"
	TriggerMarkPaid      Trigger = "MARK_PAID"
	TriggerIssue         Trigger = "ISSUE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

package audithook

// Action constants for audit events.
const (
	// Sale actions
	ActionSaleCompleted = "sale.completed"
	ActionSaleCanceled  = "sale.canceled"

	// Layaway actions
	ActionLayawayOpened    = "layaway.opened"
	ActionLayawayCompleted = "layaway.completed"
	ActionLayawayCanceled  = "layaway.canceled"

	// Inventory actions
	ActionInventoryAdjusted = "inventory.adjusted"

	// Store actions
	ActionLogEntryDropped   = "log_entry.dropped"
	ActionPersistenceFailed = "persistence.failed"

	// Time clock actions
	ActionPunchRecorded = "punch.recorded"
)

// Resource constants for audit events.
const (
	ResourceSale      = "sale"
	ResourceLayaway   = "layaway"
	ResourceInventory = "inventory"
	ResourceLog       = "log"
	ResourceStore     = "store"
	ResourcePunch     = "punch"
)

// Category constants for audit events.
const (
	CategorySales     = "sales"
	CategoryLayaway   = "layaway"
	CategoryInventory = "inventory"
	CategoryIntegrity = "integrity"
	CategoryPayroll   = "payroll"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)

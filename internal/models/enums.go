package models

// Go has no enums; each closed set below is a string type plus its
// constants, with Valid() to check values that arrive over the wire.
// The string values are what the database and the JSON API carry.

// SampleState is the lifecycle position of a sample.
type SampleState string

const (
	StateRegistered SampleState = "REGISTERED"
	StateAccepted   SampleState = "ACCEPTED"
	StateInAnalysis SampleState = "IN_ANALYSIS"
	StateAnalyzed   SampleState = "ANALYZED"
	StateCompleted  SampleState = "COMPLETED"
	StateRejected   SampleState = "REJECTED"
)

// SampleStates lists every state in lifecycle order.
var SampleStates = []SampleState{
	StateRegistered,
	StateAccepted,
	StateInAnalysis,
	StateAnalyzed,
	StateCompleted,
	StateRejected,
}

func (s SampleState) Valid() bool {
	for _, st := range SampleStates {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal reports whether no further lifecycle step is expected.
func (s SampleState) Terminal() bool {
	return s == StateCompleted || s == StateRejected
}

// AssayStatus is the lightweight status of a single assay.
type AssayStatus string

const (
	AssayPending    AssayStatus = "PENDING"
	AssayInProgress AssayStatus = "IN_PROGRESS"
	AssayCompleted  AssayStatus = "COMPLETED"
	AssayCancelled  AssayStatus = "CANCELLED"
)

func (s AssayStatus) Valid() bool {
	switch s {
	case AssayPending, AssayInProgress, AssayCompleted, AssayCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an assay in this status may still be cancelled.
func (s AssayStatus) Cancellable() bool {
	return s == AssayPending || s == AssayInProgress
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities for work queues: URGENT sorts first.
// Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type SampleType string

const (
	SampleWater          SampleType = "WATER"
	SampleFood           SampleType = "FOOD"
	SampleCosmetic       SampleType = "COSMETIC"
	SamplePharmaceutical SampleType = "PHARMACEUTICAL"
	SampleChemical       SampleType = "CHEMICAL"
	SampleEnvironmental  SampleType = "ENVIRONMENTAL"
	SampleOther          SampleType = "OTHER"
)

func (t SampleType) Valid() bool {
	switch t {
	case SampleWater, SampleFood, SampleCosmetic, SamplePharmaceutical,
		SampleChemical, SampleEnvironmental, SampleOther:
		return true
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryCourier   DeliveryMethod = "COURIER"
	DeliveryMessenger DeliveryMethod = "MESSENGER"
	DeliveryInPerson  DeliveryMethod = "IN_PERSON"
	DeliveryOther     DeliveryMethod = "OTHER"
)

func (m DeliveryMethod) Valid() bool {
	switch m {
	case DeliveryCourier, DeliveryMessenger, DeliveryInPerson, DeliveryOther:
		return true
	}
	return false
}

type ReceiptCondition string

const (
	ReceiptOptimal       ReceiptCondition = "OPTIMAL"
	ReceiptAcceptable    ReceiptCondition = "ACCEPTABLE"
	ReceiptNonConforming ReceiptCondition = "NON_CONFORMING"
)

func (c ReceiptCondition) Valid() bool {
	switch c {
	case ReceiptOptimal, ReceiptAcceptable, ReceiptNonConforming:
		return true
	}
	return false
}

type StorageCondition string

const (
	StorageAmbient      StorageCondition = "AMBIENT"
	StorageRefrigerated StorageCondition = "REFRIGERATED" // 2-8 °C
	StorageFrozen       StorageCondition = "FROZEN"       // -20 °C
	StorageUltraFrozen  StorageCondition = "ULTRA_FROZEN" // -80 °C
)

func (c StorageCondition) Valid() bool {
	switch c {
	case StorageAmbient, StorageRefrigerated, StorageFrozen, StorageUltraFrozen:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskNone   RiskLevel = "NONE"
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskNone, RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

type ClientKind string

const (
	ClientNew       ClientKind = "NEW"
	ClientRecurring ClientKind = "RECURRING"
)

func (k ClientKind) Valid() bool {
	return k == ClientNew || k == ClientRecurring
}

type Role string

const (
	RoleReception Role = "RECEPTION"
	RoleAnalyst   Role = "ANALYST"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleReception || r == RoleAnalyst || r == RoleAdmin
}

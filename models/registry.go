package models

import "time"

// ProcessENUMType organizational process ENUM value type
type ProcessENUMType string

const (
	// ProcessStrategicPlanning strategic direction and planning
	ProcessStrategicPlanning ProcessENUMType = "direccion"
	// ProcessQualitySafety quality management and occupational safety
	ProcessQualitySafety ProcessENUMType = "calidad-sst"
	// ProcessClients client management
	ProcessClients ProcessENUMType = "clientes"
	// ProcessProduction production management
	ProcessProduction ProcessENUMType = "produccion"
	// ProcessHumanTalent human talent management
	ProcessHumanTalent ProcessENUMType = "humana"
	// ProcessSuppliers supplier management
	ProcessSuppliers ProcessENUMType = "proveedores"
	// ProcessAdministrative administrative and financial management
	ProcessAdministrative ProcessENUMType = "administrativa"
)

// DocumentTypeENUMType controlled document type ENUM value type
type DocumentTypeENUMType string

const (
	// DocumentTypeManual quality manual
	DocumentTypeManual DocumentTypeENUMType = "manual"
	// DocumentTypeProcedure procedure document
	DocumentTypeProcedure DocumentTypeENUMType = "procedimiento"
	// DocumentTypeRecord quality record
	DocumentTypeRecord DocumentTypeENUMType = "registro"
	// DocumentTypeInstructional work instruction
	DocumentTypeInstructional DocumentTypeENUMType = "instructivo"
)

// DocumentStatusENUMType registry entry lifecycle status ENUM value type
type DocumentStatusENUMType string

const (
	// DocumentStatusDraft entry is being drafted
	DocumentStatusDraft DocumentStatusENUMType = "borrador"
	// DocumentStatusPendingApproval entry awaits reviewer approval
	DocumentStatusPendingApproval DocumentStatusENUMType = "pendiente_aprobacion"
	// DocumentStatusApproved entry is approved
	DocumentStatusApproved DocumentStatusENUMType = "aprobado"
	// DocumentStatusRejected entry was rejected
	DocumentStatusRejected DocumentStatusENUMType = "rechazado"
	// DocumentStatusInReview entry is under periodic review
	DocumentStatusInReview DocumentStatusENUMType = "en_revision"
	// DocumentStatusObsolete entry has been retired
	DocumentStatusObsolete DocumentStatusENUMType = "obsoleto"
)

// DispositionChoiceENUMType final disposition decision for a retired document
type DispositionChoiceENUMType string

const (
	// DispositionKeep keep the document
	DispositionKeep DispositionChoiceENUMType = "conservar"
	// DispositionDestroy destroy the document
	DispositionDestroy DispositionChoiceENUMType = "eliminar"
	// DispositionMicrofilm microfilm the document
	DispositionMicrofilm DispositionChoiceENUMType = "microfilmar"
)

// DispositionExecutionENUMType execution state of the final disposition
type DispositionExecutionENUMType string

const (
	// DispositionExecutionPending disposition not yet carried out
	DispositionExecutionPending DispositionExecutionENUMType = "pendiente"
	// DispositionExecutionDone disposition carried out
	DispositionExecutionDone DispositionExecutionENUMType = "ejecutada"
	// DispositionExecutionNotApplicable no disposition applies
	DispositionExecutionNotApplicable DispositionExecutionENUMType = "no_aplica"
)

// RetentionPeriod document retention periods in years
type RetentionPeriod struct {
	// Management years the document stays with the owning process
	Management int `json:"management" gorm:"column:management"`
	// CentralArchive years the document stays in the central archive
	CentralArchive int `json:"central_archive" gorm:"column:central"`
	// Total total conservation years
	Total int `json:"total" gorm:"column:total"`
}

// FinalDisposition what happens to the document once retention expires
type FinalDisposition struct {
	// Choice the disposition decision
	Choice DispositionChoiceENUMType `json:"choice" gorm:"column:choice" validate:"omitempty,disposition_choice"`
	// Execution whether the decision was carried out
	Execution DispositionExecutionENUMType `json:"execution" gorm:"column:execution" validate:"omitempty,disposition_execution"`
}

// RegistryEntry one row of the master document list. Its lifecycle is
// independent from the DocumentRecord it may link to.
type RegistryEntry struct {
	// ID entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`

	// Code structured document code, e.g. RE-GS-01. Unique among active entries.
	Code string `json:"code" gorm:"column:code;not null;index" validate:"required"`

	// Name document name
	Name string `json:"name" gorm:"column:name;not null" validate:"required"`

	// Process owning organizational process
	Process ProcessENUMType `json:"process" gorm:"column:process;not null;index" validate:"required,qms_process"`

	// DocType controlled document type
	DocType DocumentTypeENUMType `json:"doc_type" gorm:"column:doc_type;not null;index" validate:"required,qms_doc_type"`

	// Version current version string
	Version string `json:"version" gorm:"column:version;not null" validate:"required"`

	// Responsible party responsible for the document
	Responsible string `json:"responsible" gorm:"column:responsible;not null;index" validate:"required"`

	// PhysicalLocation where the physical copy lives
	PhysicalLocation string `json:"physical_location,omitempty" gorm:"column:physical_location"`
	// DigitalLocation where the digital copy lives
	DigitalLocation string `json:"digital_location,omitempty" gorm:"column:digital_location"`

	// Retention retention periods
	Retention RetentionPeriod `json:"retention" gorm:"embedded;embeddedPrefix:retention_"`
	// Disposition final disposition decision
	Disposition FinalDisposition `json:"disposition" gorm:"embedded;embeddedPrefix:disposition_"`

	// Status lifecycle status
	Status DocumentStatusENUMType `json:"status" gorm:"column:status;not null;index" validate:"required,doc_status"`

	// DocumentID the linked DocumentRecord, if any
	DocumentID *string `json:"document_id,omitempty" gorm:"column:document_id;default:null"`

	// Validity validity period label
	Validity string `json:"validity,omitempty" gorm:"column:validity"`

	// ChangeReason reason recorded with the last status change
	ChangeReason string `json:"change_reason,omitempty" gorm:"column:change_reason"`
	// PreviousVersion version before the last change
	PreviousVersion string `json:"previous_version,omitempty" gorm:"column:previous_version"`
	// ChangedAt timestamp of the last recorded change
	ChangedAt *time.Time `json:"changed_at,omitempty" gorm:"column:changed_at;default:null"`

	// Observations free-form notes
	Observations string `json:"observations,omitempty" gorm:"column:observations"`

	// Active soft-delete flag; inactive entries do not count toward code uniqueness
	Active bool `json:"active" gorm:"column:active;index"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// RegistryStatusCount count of registry entries sharing one status
type RegistryStatusCount struct {
	Status DocumentStatusENUMType `json:"status" gorm:"column:status"`
	Count  int64                  `json:"count" gorm:"column:count"`
}

// RegistryProcessCount count of registry entries sharing one process
type RegistryProcessCount struct {
	Process ProcessENUMType `json:"process" gorm:"column:process"`
	Count   int64           `json:"count" gorm:"column:count"`
}

// RegistryDocTypeCount count of registry entries sharing one document type
type RegistryDocTypeCount struct {
	DocType DocumentTypeENUMType `json:"doc_type" gorm:"column:doc_type"`
	Count   int64                `json:"count" gorm:"column:count"`
}

// RegistryStats aggregate counts over active registry entries
type RegistryStats struct {
	Total     int64                  `json:"total"`
	ByStatus  []RegistryStatusCount  `json:"by_status"`
	ByProcess []RegistryProcessCount `json:"by_process"`
	ByDocType []RegistryDocTypeCount `json:"by_doc_type"`
}

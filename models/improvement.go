package models

import "time"

// ActionOriginENUMType what surfaced the improvement action
type ActionOriginENUMType string

const (
	// ActionOriginAudit finding from an audit
	ActionOriginAudit ActionOriginENUMType = "auditoria"
	// ActionOriginComplaint finding from a complaint/claim/suggestion
	ActionOriginComplaint ActionOriginENUMType = "qrs"
	// ActionOriginSatisfaction finding from a satisfaction survey
	ActionOriginSatisfaction ActionOriginENUMType = "satisfaccion"
	// ActionOriginSelfControl finding from self-control checks
	ActionOriginSelfControl ActionOriginENUMType = "autocontrol"
	// ActionOriginRiskAnalysis finding from risk analysis
	ActionOriginRiskAnalysis ActionOriginENUMType = "analisis_riesgos"
	// ActionOriginNonConforming finding from non-conforming product
	ActionOriginNonConforming ActionOriginENUMType = "prod_no_conforme"
)

// ActionClassENUMType class of the improvement action
type ActionClassENUMType string

const (
	// ActionClassCorrection immediate correction
	ActionClassCorrection ActionClassENUMType = "correccion"
	// ActionClassCorrective corrective action
	ActionClassCorrective ActionClassENUMType = "correctiva"
	// ActionClassPreventive preventive action
	ActionClassPreventive ActionClassENUMType = "preventiva"
)

// ImprovementAction one entry in the improvement-action log
type ImprovementAction struct {
	// ID entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`

	// Consecutive sequential label assigned by the quality team
	Consecutive string `json:"consecutive" gorm:"column:consecutive;not null" validate:"required"`

	// Date date the finding was raised
	Date time.Time `json:"date" gorm:"column:date;not null;index"`

	// Process owning process label
	Process string `json:"process" gorm:"column:process;not null" validate:"required"`

	// Origin what surfaced the finding
	Origin ActionOriginENUMType `json:"origin" gorm:"column:origin;not null" validate:"required,action_origin"`

	// Finding description of the finding
	Finding string `json:"finding" gorm:"column:finding;not null" validate:"required"`

	// Class class of the action taken
	Class ActionClassENUMType `json:"class" gorm:"column:class;not null" validate:"required,action_class"`

	// Causes root cause analysis
	Causes string `json:"causes" gorm:"column:causes;not null" validate:"required"`
	// ActionDescription what will be done
	ActionDescription string `json:"action_description" gorm:"column:action_description;not null" validate:"required"`
	// ExpectedOutcomes what the action should achieve
	ExpectedOutcomes string `json:"expected_outcomes" gorm:"column:expected_outcomes;not null" validate:"required"`
	// Resources budget and resources committed
	Resources string `json:"resources" gorm:"column:resources;not null" validate:"required"`

	// Responsible party responsible for executing the action
	Responsible string `json:"responsible" gorm:"column:responsible;not null" validate:"required"`

	// ProposedDate planned execution date
	ProposedDate time.Time `json:"proposed_date" gorm:"column:proposed_date;not null"`

	// VerificationCriteria how completion will be verified
	VerificationCriteria string `json:"verification_criteria" gorm:"column:verification_criteria;not null" validate:"required"`
	// VerificationFinding result of the verification
	VerificationFinding string `json:"verification_finding" gorm:"column:verification_finding"`
	// VerificationDate when the verification happened
	VerificationDate time.Time `json:"verification_date" gorm:"column:verification_date"`
	// EffectivenessDate when effectiveness was confirmed
	EffectivenessDate time.Time `json:"effectiveness_date" gorm:"column:effectiveness_date"`

	// ClosedYes marker set when the action closed successfully
	ClosedYes string `json:"closed_yes" gorm:"column:closed_yes"`
	// ClosedNo marker set when the action closed unsuccessfully
	ClosedNo string `json:"closed_no" gorm:"column:closed_no"`

	// Auditor auditor who followed up on the action
	Auditor string `json:"auditor,omitempty" gorm:"column:auditor"`
	// Observations free-form notes
	Observations string `json:"observations,omitempty" gorm:"column:observations"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportTemplate a stored spreadsheet used as the base layout for generated
// reports. Only one template is active at a time.
type ReportTemplate struct {
	// ID entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`

	// Name original file name
	Name string `json:"name" gorm:"column:name;not null" validate:"required"`
	// Extension file extension
	Extension string `json:"extension" gorm:"column:extension;not null"`
	// ContentType MIME content type
	ContentType string `json:"content_type" gorm:"column:content_type;not null"`
	// StoreRef object store reference of the template payload
	StoreRef string `json:"store_ref" gorm:"column:store_ref;not null" validate:"required"`

	// Active whether this is the template reports are built from
	Active bool `json:"active" gorm:"column:active;index"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

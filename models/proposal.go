package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ProposalStatusENUMType proposal lifecycle status ENUM value type
type ProposalStatusENUMType string

const (
	// ProposalStatusPending proposal awaits review
	ProposalStatusPending ProposalStatusENUMType = "pendiente"
	// ProposalStatusApproved proposal was approved and merged
	ProposalStatusApproved ProposalStatusENUMType = "aprobada"
	// ProposalStatusRejected proposal was rejected
	ProposalStatusRejected ProposalStatusENUMType = "rechazada"
)

// ProposalChangeSet the partial change requested against a DocumentRecord.
// Only fields that actually differ from the current record are present;
// Version is always present.
type ProposalChangeSet struct {
	// Version the proposed new version string
	Version string `json:"version" validate:"required"`
	// Name proposed new name, if changed
	Name string `json:"name,omitempty"`
	// Validity proposed new validity label, if changed
	Validity string `json:"validity,omitempty"`
	// Attachment proposed replacement attachment, if any
	Attachment Attachment `json:"attachment,omitempty"`
}

// Proposal a pending, approved, or rejected change request against one
// DocumentRecord. A non-pending proposal is immutable.
type Proposal struct {
	// ID proposal ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`

	// DocumentID the target DocumentRecord
	DocumentID string `json:"document_id" gorm:"column:document_id;not null;index" validate:"required,uuid_rfc4122"`

	// ChangeSet serialized ProposalChangeSet
	ChangeSet datatypes.JSON `json:"change_set" gorm:"column:change_set;not null"`

	// Justification reason for the change
	Justification string `json:"justification" gorm:"column:justification;not null" validate:"required"`

	// Proposer identity of the submitter
	Proposer string `json:"proposer" gorm:"column:proposer;not null" validate:"required"`

	// SubmittedAt submission timestamp
	SubmittedAt time.Time `json:"submitted_at" gorm:"column:submitted_at;not null"`

	// Status proposal status
	Status ProposalStatusENUMType `json:"status" gorm:"column:status;not null;index" validate:"required,proposal_status"`

	// Reviewer identity of the reviewer, set on approval or rejection
	Reviewer string `json:"reviewer,omitempty" gorm:"column:reviewer"`
	// ReviewedAt review timestamp, set on approval or rejection
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" gorm:"column:reviewed_at;default:null"`
	// ReviewComments reviewer comments
	ReviewComments string `json:"review_comments,omitempty" gorm:"column:review_comments"`

	// RegistrySynced whether the linked registry entry was updated after approval
	RegistrySynced bool `json:"registry_synced" gorm:"column:registry_synced"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseChangeSet decode the serialized change set
func (p Proposal) ParseChangeSet() (ProposalChangeSet, error) {
	var parsed ProposalChangeSet
	if err := json.Unmarshal(p.ChangeSet, &parsed); err != nil {
		return ProposalChangeSet{}, fmt.Errorf(
			"proposal %s change set parse failed [%w]", p.ID, err,
		)
	}
	return parsed, nil
}

// EncodeChangeSet serialize a change set for storage
func EncodeChangeSet(changes ProposalChangeSet) (datatypes.JSON, error) {
	encoded, err := json.Marshal(&changes)
	if err != nil {
		return nil, fmt.Errorf("change set encode failed [%w]", err)
	}
	return datatypes.JSON(encoded), nil
}

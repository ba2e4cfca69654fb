package models

import "time"

// DocumentKindENUMType kind of a physical controlled document
type DocumentKindENUMType string

const (
	// DocumentKindForm a controlled form
	DocumentKindForm DocumentKindENUMType = "formato"
	// DocumentKindTemplate a reusable template
	DocumentKindTemplate DocumentKindENUMType = "plantilla"
)

// Attachment binary attachment stored in the object store
type Attachment struct {
	// Name original file name
	Name string `json:"name" gorm:"column:name"`
	// ContentType MIME content type
	ContentType string `json:"content_type" gorm:"column:content_type"`
	// StoreRef opaque object store reference
	StoreRef string `json:"store_ref" gorm:"column:store_ref"`
	// Size attachment size in bytes
	Size int64 `json:"size" gorm:"column:size"`
}

// Present whether an attachment is set
func (a Attachment) Present() bool {
	return a.StoreRef != ""
}

// DocumentRecord one physical controlled document with its current attachment
type DocumentRecord struct {
	// ID record ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,uuid_rfc4122"`

	// Process owning organizational process
	Process ProcessENUMType `json:"process" gorm:"column:process;not null" validate:"required,qms_process"`

	// Code structured document code. Immutable by normal flow once assigned.
	Code string `json:"code" gorm:"column:code;not null" validate:"required"`

	// Name document name
	Name string `json:"name" gorm:"column:name;not null" validate:"required"`

	// Kind document kind
	Kind DocumentKindENUMType `json:"kind" gorm:"column:kind;not null" validate:"required,document_kind"`

	// Validity validity period label
	Validity string `json:"validity,omitempty" gorm:"column:validity"`

	// Version current version string; a bare integer or a major.minor pair
	Version string `json:"version" gorm:"column:version;not null" validate:"required"`

	// Attachment the current attachment, if any
	Attachment Attachment `json:"attachment" gorm:"embedded;embeddedPrefix:attachment_"`

	// RegistryEntryID back-reference to the master list entry, if linked
	RegistryEntryID *string `json:"registry_entry_id,omitempty" gorm:"column:registry_entry_id;default:null"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

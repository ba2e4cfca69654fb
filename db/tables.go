package db

import "github.com/sigqms/doccontrol/models"

// --------------------------------------------------------------------------------------
// Master list entries

// RegistryEntryDBEntry master list entry DB entry
type RegistryEntryDBEntry struct {
	models.RegistryEntry
}

// TableName hard code table name
func (RegistryEntryDBEntry) TableName() string {
	return "registry_entries"
}

// --------------------------------------------------------------------------------------
// Document records

// DocumentRecordDBEntry controlled document DB entry
type DocumentRecordDBEntry struct {
	models.DocumentRecord
}

// TableName hard code table name
func (DocumentRecordDBEntry) TableName() string {
	return "document_records"
}

// --------------------------------------------------------------------------------------
// Change proposals

// ProposalDBEntry document change proposal DB entry
type ProposalDBEntry struct {
	models.Proposal
	Document DocumentRecordDBEntry `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID" validate:"-"`
}

// TableName hard code table name
func (ProposalDBEntry) TableName() string {
	return "proposals"
}

// --------------------------------------------------------------------------------------
// Improvement actions

// ImprovementActionDBEntry improvement action log DB entry
type ImprovementActionDBEntry struct {
	models.ImprovementAction
}

// TableName hard code table name
func (ImprovementActionDBEntry) TableName() string {
	return "improvement_actions"
}

// ReportTemplateDBEntry stored report template DB entry
type ReportTemplateDBEntry struct {
	models.ReportTemplate
}

// TableName hard code table name
func (ReportTemplateDBEntry) TableName() string {
	return "report_templates"
}

// --------------------------------------------------------------------------------------
// Balanced scorecard

// FormulaDBEntry indicator formula DB entry
type FormulaDBEntry struct {
	models.Formula
}

// TableName hard code table name
func (FormulaDBEntry) TableName() string {
	return "formulas"
}

// ScorecardIndicatorDBEntry scorecard indicator DB entry
type ScorecardIndicatorDBEntry struct {
	models.ScorecardIndicator
	Formula *FormulaDBEntry `gorm:"constraint:OnDelete:SET NULL;foreignKey:FormulaID" validate:"-"`
}

// TableName hard code table name
func (ScorecardIndicatorDBEntry) TableName() string {
	return "scorecard_indicators"
}

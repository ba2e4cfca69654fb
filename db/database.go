package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/sigqms/doccontrol/models"
	"gorm.io/gorm"
)

// CommonListEntryQueryFilter common query filter when listing data entries
type CommonListEntryQueryFilter struct {
	Limit  *int
	Offset *int
}

// RegistryEntryQueryFilter master list entry query filter conditions
type RegistryEntryQueryFilter struct {
	CommonListEntryQueryFilter
	// Process filter for entries owned by this process
	Process *models.ProcessENUMType
	// DocType filter for entries of this document type
	DocType *models.DocumentTypeENUMType
	// Status filter for entries in these statuses
	Status []models.DocumentStatusENUMType
	// Responsible substring filter against the responsible party
	Responsible *string
	// Search substring filter against both code and name
	Search *string
	// Active filter on the soft-delete flag. Unset returns everything.
	Active *bool
}

// DocumentRecordQueryFilter controlled document query filter conditions
type DocumentRecordQueryFilter struct {
	CommonListEntryQueryFilter
	// Process filter for documents owned by this process
	Process *models.ProcessENUMType
	// Kind filter for documents of this kind
	Kind *models.DocumentKindENUMType
	// Search substring filter against both code and name
	Search *string
}

// ProposalQueryFilter change proposal query filter conditions
type ProposalQueryFilter struct {
	CommonListEntryQueryFilter
	// Status filter for proposals in these statuses
	Status []models.ProposalStatusENUMType
	// DocumentID fetch only proposals targeting this document
	DocumentID *string
}

// ImprovementActionQueryFilter improvement action query filter conditions
type ImprovementActionQueryFilter struct {
	CommonListEntryQueryFilter
	// Process filter for actions owned by this process
	Process *string
	// Origin filter for actions surfaced by this origin
	Origin *models.ActionOriginENUMType
	// Class filter for actions of this class
	Class *models.ActionClassENUMType
}

// ScorecardIndicatorQueryFilter scorecard indicator query filter conditions
type ScorecardIndicatorQueryFilter struct {
	CommonListEntryQueryFilter
	// Perspective filter for indicators under this scorecard perspective
	Perspective *string
	// IndicatorType filter for indicators of this classification
	IndicatorType *string
	// InformationSource filter for indicators fed by this process
	InformationSource *string
}

// Database the database handle to interacting with the data base
type Database interface {
	// ------------------------------------------------------------------------------------
	// Master list entries

	/*
		CreateRegistryEntry record a new master list entry

		Fails with `ErrConflict` if an active entry already carries the same code.

			@param ctx context.Context - execution context
			@param entry models.RegistryEntry - the entry to record. ID is assigned here.
			@returns the recorded entry
	*/
	CreateRegistryEntry(
		ctx context.Context, entry models.RegistryEntry,
	) (models.RegistryEntry, error)

	/*
		GetRegistryEntry fetch a master list entry by ID

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@returns the entry
	*/
	GetRegistryEntry(ctx context.Context, entryID string) (models.RegistryEntry, error)

	/*
		GetRegistryEntryByCode fetch the active master list entry carrying a code

			@param ctx context.Context - execution context
			@param code string - the document code
			@returns the entry
	*/
	GetRegistryEntryByCode(ctx context.Context, code string) (models.RegistryEntry, error)

	/*
		ListRegistryEntries list master list entries

			@param ctx context.Context - execution context
			@param filters RegistryEntryQueryFilter - entry listing filter
			@returns list of entries
	*/
	ListRegistryEntries(
		ctx context.Context, filters RegistryEntryQueryFilter,
	) ([]models.RegistryEntry, error)

	/*
		UpdateRegistryEntry persist a modified master list entry

			@param ctx context.Context - execution context
			@param entry models.RegistryEntry - the modified entry
			@returns the persisted entry
	*/
	UpdateRegistryEntry(
		ctx context.Context, entry models.RegistryEntry,
	) (models.RegistryEntry, error)

	/*
		SetRegistryEntryStatus change the lifecycle status of a master list entry

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param status models.DocumentStatusENUMType - the new status
			@param changeReason string - reason recorded with the change
	*/
	SetRegistryEntryStatus(
		ctx context.Context,
		entryID string,
		status models.DocumentStatusENUMType,
		changeReason string,
	) error

	/*
		SetRegistryEntryActive flip the soft-delete flag of a master list entry

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param active bool - the new flag value
	*/
	SetRegistryEntryActive(ctx context.Context, entryID string, active bool) error

	/*
		LinkRegistryEntryDocument associate a master list entry with a document record

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param documentID string - the document record ID
	*/
	LinkRegistryEntryDocument(ctx context.Context, entryID string, documentID string) error

	/*
		UnlinkRegistryEntryDocument clear the document association of a master list entry

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
	*/
	UnlinkRegistryEntryDocument(ctx context.Context, entryID string) error

	/*
		CountRegistryEntries count active master list entries

			@param ctx context.Context - execution context
			@returns entry count
	*/
	CountRegistryEntries(ctx context.Context) (int64, error)

	/*
		CountRegistryEntriesByStatus count active master list entries grouped by status

			@param ctx context.Context - execution context
			@returns per-status counts
	*/
	CountRegistryEntriesByStatus(ctx context.Context) ([]models.RegistryStatusCount, error)

	/*
		CountRegistryEntriesByProcess count active master list entries grouped by process

			@param ctx context.Context - execution context
			@returns per-process counts
	*/
	CountRegistryEntriesByProcess(ctx context.Context) ([]models.RegistryProcessCount, error)

	/*
		CountRegistryEntriesByDocType count active master list entries grouped by doc type

			@param ctx context.Context - execution context
			@returns per-type counts
	*/
	CountRegistryEntriesByDocType(ctx context.Context) ([]models.RegistryDocTypeCount, error)

	/*
		ListTakenCodesWithPrefix list document codes considered occupied under a code prefix

		A code counts as occupied when carried by an active entry, or by an inactive
		reservation placeholder.

			@param ctx context.Context - execution context
			@param prefix string - code prefix, e.g. "RE-GS-"
			@returns occupied codes
	*/
	ListTakenCodesWithPrefix(ctx context.Context, prefix string) ([]string, error)

	/*
		CodeTaken check whether one document code is occupied

			@param ctx context.Context - execution context
			@param code string - the document code
			@returns whether the code is occupied
	*/
	CodeTaken(ctx context.Context, code string) (bool, error)

	/*
		DeleteReservedRegistryEntries hard delete reservation placeholders created
		before a cutoff

			@param ctx context.Context - execution context
			@param olderThan time.Time - the cutoff timestamp
			@returns number of placeholders removed
	*/
	DeleteReservedRegistryEntries(ctx context.Context, olderThan time.Time) (int64, error)

	// ------------------------------------------------------------------------------------
	// Document records

	/*
		CreateDocumentRecord record a new controlled document

			@param ctx context.Context - execution context
			@param record models.DocumentRecord - the document to record. ID is assigned here.
			@returns the recorded document
	*/
	CreateDocumentRecord(
		ctx context.Context, record models.DocumentRecord,
	) (models.DocumentRecord, error)

	/*
		GetDocumentRecord fetch a controlled document by ID

			@param ctx context.Context - execution context
			@param documentID string - the document record ID
			@returns the document
	*/
	GetDocumentRecord(ctx context.Context, documentID string) (models.DocumentRecord, error)

	/*
		ListDocumentRecords list controlled documents

			@param ctx context.Context - execution context
			@param filters DocumentRecordQueryFilter - entry listing filter
			@returns list of documents
	*/
	ListDocumentRecords(
		ctx context.Context, filters DocumentRecordQueryFilter,
	) ([]models.DocumentRecord, error)

	/*
		UpdateDocumentRecord persist a modified controlled document

			@param ctx context.Context - execution context
			@param record models.DocumentRecord - the modified document
			@returns the persisted document
	*/
	UpdateDocumentRecord(
		ctx context.Context, record models.DocumentRecord,
	) (models.DocumentRecord, error)

	/*
		DeleteDocumentRecord delete a controlled document

			@param ctx context.Context - execution context
			@param documentID string - the document record ID
	*/
	DeleteDocumentRecord(ctx context.Context, documentID string) error

	// ------------------------------------------------------------------------------------
	// Change proposals

	/*
		CreateProposal record a new change proposal in pending state

			@param ctx context.Context - execution context
			@param proposal models.Proposal - the proposal to record. ID and status are
			    assigned here.
			@returns the recorded proposal
	*/
	CreateProposal(ctx context.Context, proposal models.Proposal) (models.Proposal, error)

	/*
		GetProposal fetch a change proposal by ID

			@param ctx context.Context - execution context
			@param proposalID string - the proposal ID
			@returns the proposal
	*/
	GetProposal(ctx context.Context, proposalID string) (models.Proposal, error)

	/*
		ListProposals list change proposals

			@param ctx context.Context - execution context
			@param filters ProposalQueryFilter - entry listing filter
			@returns list of proposals
	*/
	ListProposals(ctx context.Context, filters ProposalQueryFilter) ([]models.Proposal, error)

	/*
		CloseProposal move a pending proposal to a terminal status

		The transition is guarded. If the proposal is no longer pending, the call
		fails with `ErrNotFound`.

			@param ctx context.Context - execution context
			@param proposalID string - the proposal ID
			@param status models.ProposalStatusENUMType - the terminal status
			@param reviewer string - identity of the reviewer
			@param comments string - reviewer comments
			@param reviewedAt time.Time - the review timestamp
	*/
	CloseProposal(
		ctx context.Context,
		proposalID string,
		status models.ProposalStatusENUMType,
		reviewer string,
		comments string,
		reviewedAt time.Time,
	) error

	/*
		MarkProposalRegistrySynced flag that the registry entry linked to a proposal's
		document was updated after approval

			@param ctx context.Context - execution context
			@param proposalID string - the proposal ID
	*/
	MarkProposalRegistrySynced(ctx context.Context, proposalID string) error

	// ------------------------------------------------------------------------------------
	// Improvement actions

	/*
		CreateImprovementAction record a new improvement action

			@param ctx context.Context - execution context
			@param action models.ImprovementAction - the action to record. ID is assigned here.
			@returns the recorded action
	*/
	CreateImprovementAction(
		ctx context.Context, action models.ImprovementAction,
	) (models.ImprovementAction, error)

	/*
		GetImprovementAction fetch an improvement action by ID

			@param ctx context.Context - execution context
			@param actionID string - the action ID
			@returns the action
	*/
	GetImprovementAction(ctx context.Context, actionID string) (models.ImprovementAction, error)

	/*
		ListImprovementActions list improvement actions

			@param ctx context.Context - execution context
			@param filters ImprovementActionQueryFilter - entry listing filter
			@returns list of actions
	*/
	ListImprovementActions(
		ctx context.Context, filters ImprovementActionQueryFilter,
	) ([]models.ImprovementAction, error)

	/*
		UpdateImprovementAction persist a modified improvement action

			@param ctx context.Context - execution context
			@param action models.ImprovementAction - the modified action
			@returns the persisted action
	*/
	UpdateImprovementAction(
		ctx context.Context, action models.ImprovementAction,
	) (models.ImprovementAction, error)

	// ------------------------------------------------------------------------------------
	// Report templates

	/*
		RecordReportTemplate record a new report template and make it the active one

		Any previously active template is deactivated.

			@param ctx context.Context - execution context
			@param template models.ReportTemplate - the template to record. ID is assigned here.
			@returns the recorded template
	*/
	RecordReportTemplate(
		ctx context.Context, template models.ReportTemplate,
	) (models.ReportTemplate, error)

	/*
		GetActiveReportTemplate fetch the currently active report template

			@param ctx context.Context - execution context
			@returns the template
	*/
	GetActiveReportTemplate(ctx context.Context) (models.ReportTemplate, error)

	/*
		ListReportTemplates list stored report templates

			@param ctx context.Context - execution context
			@param filters CommonListEntryQueryFilter - entry listing filter
			@returns list of templates
	*/
	ListReportTemplates(
		ctx context.Context, filters CommonListEntryQueryFilter,
	) ([]models.ReportTemplate, error)

	// ------------------------------------------------------------------------------------
	// Indicator formulas

	/*
		CreateFormula record a new indicator formula

			@param ctx context.Context - execution context
			@param formula models.Formula - the formula to record. ID is assigned here.
			@returns the recorded formula
	*/
	CreateFormula(ctx context.Context, formula models.Formula) (models.Formula, error)

	/*
		GetFormula fetch an indicator formula by ID

			@param ctx context.Context - execution context
			@param formulaID string - the formula ID
			@returns the formula
	*/
	GetFormula(ctx context.Context, formulaID string) (models.Formula, error)

	/*
		GetFormulaByName fetch an indicator formula by name

			@param ctx context.Context - execution context
			@param name string - the formula name
			@returns the formula
	*/
	GetFormulaByName(ctx context.Context, name string) (models.Formula, error)

	/*
		ListFormulas list indicator formulas

			@param ctx context.Context - execution context
			@param filters CommonListEntryQueryFilter - entry listing filter
			@returns list of formulas
	*/
	ListFormulas(
		ctx context.Context, filters CommonListEntryQueryFilter,
	) ([]models.Formula, error)

	/*
		UpdateFormula persist a modified indicator formula

			@param ctx context.Context - execution context
			@param formula models.Formula - the modified formula
			@returns the persisted formula
	*/
	UpdateFormula(ctx context.Context, formula models.Formula) (models.Formula, error)

	/*
		DeleteFormula delete an indicator formula

			@param ctx context.Context - execution context
			@param formulaID string - the formula ID
	*/
	DeleteFormula(ctx context.Context, formulaID string) error

	// ------------------------------------------------------------------------------------
	// Scorecard indicators

	/*
		CreateScorecardIndicator record a new scorecard indicator

			@param ctx context.Context - execution context
			@param indicator models.ScorecardIndicator - the indicator to record. ID is
			    assigned here.
			@returns the recorded indicator
	*/
	CreateScorecardIndicator(
		ctx context.Context, indicator models.ScorecardIndicator,
	) (models.ScorecardIndicator, error)

	/*
		GetScorecardIndicator fetch a scorecard indicator by ID

			@param ctx context.Context - execution context
			@param indicatorID string - the indicator ID
			@returns the indicator
	*/
	GetScorecardIndicator(
		ctx context.Context, indicatorID string,
	) (models.ScorecardIndicator, error)

	/*
		ListScorecardIndicators list scorecard indicators

			@param ctx context.Context - execution context
			@param filters ScorecardIndicatorQueryFilter - entry listing filter
			@returns list of indicators
	*/
	ListScorecardIndicators(
		ctx context.Context, filters ScorecardIndicatorQueryFilter,
	) ([]models.ScorecardIndicator, error)

	/*
		UpdateScorecardIndicator persist a modified scorecard indicator

			@param ctx context.Context - execution context
			@param indicator models.ScorecardIndicator - the modified indicator
			@returns the persisted indicator
	*/
	UpdateScorecardIndicator(
		ctx context.Context, indicator models.ScorecardIndicator,
	) (models.ScorecardIndicator, error)

	/*
		DeleteScorecardIndicator delete a scorecard indicator

			@param ctx context.Context - execution context
			@param indicatorID string - the indicator ID
	*/
	DeleteScorecardIndicator(ctx context.Context, indicatorID string) error
}

// databaseImpl implements Database
type databaseImpl struct {
	goutils.Component
	db        *gorm.DB
	validator *validator.Validate
}

// newDatabase define a new database client
func newDatabase(_ context.Context, sqlClient *gorm.DB) (Database, error) {
	logTags := log.Fields{"package": "doccontrol", "module": "db", "component": "db-client"}

	instance := &databaseImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:        sqlClient,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}

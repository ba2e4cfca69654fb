package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sigqms/doccontrol/models"
	"gorm.io/gorm"
)

// ======================================================================================
// Change proposals

/*
CreateProposal record a new change proposal in pending state

	@param ctx context.Context - execution context
	@param proposal models.Proposal - the proposal to record. ID and status are
	    assigned here.
	@returns the recorded proposal
*/
func (d *databaseImpl) CreateProposal(
	ctx context.Context, proposal models.Proposal,
) (models.Proposal, error) {
	if proposal.ID == "" {
		proposal.ID = ulid.Make().String()
	}
	proposal.Status = models.ProposalStatusPending
	if proposal.SubmittedAt.IsZero() {
		proposal.SubmittedAt = time.Now().UTC()
	}

	// The target document must exist
	if _, err := d.GetDocumentRecord(ctx, proposal.DocumentID); err != nil {
		return models.Proposal{}, err
	}

	newEntry := ProposalDBEntry{Proposal: proposal}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.Proposal{}, fmt.Errorf(
			"new proposal for document %s is not valid [%w]", proposal.DocumentID, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.Proposal{}, fmt.Errorf(
			"new proposal for document %s failed insert [%w]", proposal.DocumentID, tmp.Error,
		)
	}

	return newEntry.Proposal, nil
}

/*
GetProposal fetch a change proposal by ID

	@param ctx context.Context - execution context
	@param proposalID string - the proposal ID
	@returns the proposal
*/
func (d *databaseImpl) GetProposal(
	_ context.Context, proposalID string,
) (models.Proposal, error) {
	var entry ProposalDBEntry
	if tmp := d.db.Where("id = ?", proposalID).First(&entry); tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return models.Proposal{}, fmt.Errorf("proposal %s: %w", proposalID, ErrNotFound)
		}
		return models.Proposal{}, fmt.Errorf(
			"failed to fetch proposal %s [%w]", proposalID, tmp.Error,
		)
	}

	return entry.Proposal, nil
}

/*
ListProposals list change proposals

	@param ctx context.Context - execution context
	@param filters ProposalQueryFilter - entry listing filter
	@returns list of proposals
*/
func (d *databaseImpl) ListProposals(
	_ context.Context, filters ProposalQueryFilter,
) ([]models.Proposal, error) {
	query := d.db.Model(&ProposalDBEntry{})

	if len(filters.Status) > 0 {
		query = query.Where("status IN ?", filters.Status)
	}
	if filters.DocumentID != nil {
		query = query.Where("document_id = ?", *filters.DocumentID)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("submitted_at desc")

	var entries []ProposalDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list proposals [%w]", tmp.Error)
	}

	result := []models.Proposal{}
	for _, entry := range entries {
		result = append(result, entry.Proposal)
	}

	return result, nil
}

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
func (d *databaseImpl) CloseProposal(
	_ context.Context,
	proposalID string,
	status models.ProposalStatusENUMType,
	reviewer string,
	comments string,
	reviewedAt time.Time,
) error {
	if status != models.ProposalStatusApproved && status != models.ProposalStatusRejected {
		return fmt.Errorf("'%s' is not a terminal proposal status", status)
	}

	tmp := d.db.
		Model(&ProposalDBEntry{}).
		Where("id = ? AND status = ?", proposalID, models.ProposalStatusPending).
		Updates(map[string]interface{}{
			"status":          status,
			"reviewer":        reviewer,
			"review_comments": comments,
			"reviewed_at":     reviewedAt,
		})
	if tmp.Error != nil {
		return fmt.Errorf("failed to close proposal %s [%w]", proposalID, tmp.Error)
	}
	if tmp.RowsAffected == 0 {
		return fmt.Errorf("no pending proposal %s: %w", proposalID, ErrNotFound)
	}

	return nil
}

/*
MarkProposalRegistrySynced flag that the registry entry linked to a proposal's
document was updated after approval

	@param ctx context.Context - execution context
	@param proposalID string - the proposal ID
*/
func (d *databaseImpl) MarkProposalRegistrySynced(
	_ context.Context, proposalID string,
) error {
	tmp := d.db.
		Model(&ProposalDBEntry{}).
		Where("id = ?", proposalID).
		Update("registry_synced", true)
	if tmp.Error != nil {
		return fmt.Errorf("failed to mark proposal %s synced [%w]", proposalID, tmp.Error)
	}
	if tmp.RowsAffected == 0 {
		return fmt.Errorf("proposal %s: %w", proposalID, ErrNotFound)
	}

	return nil
}

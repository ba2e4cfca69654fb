package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/sigqms/doccontrol/notify"
	"github.com/sigqms/doccontrol/objectstore"
)

// proposalAttachmentPrefix object store prefix for proposed attachments
const proposalAttachmentPrefix = "proposals"

/*
NextVersion compute the version string following the current one.

Bare integers bump the whole number ("3" to "4"); major.minor pairs bump the
minor segment ("3.2" to "3.3", "10.9" to "10.10").

	@param current string - the current version string
	@returns the next version string
*/
func NextVersion(current string) (string, error) {
	parts := strings.Split(current, ".")

	switch len(parts) {
	case 1:
		major, err := strconv.Atoi(parts[0])
		if err != nil {
			return "", fmt.Errorf("'%s' is not a usable version string", current)
		}
		return strconv.Itoa(major + 1), nil

	case 2:
		major, err := strconv.Atoi(parts[0])
		if err != nil {
			return "", fmt.Errorf("'%s' is not a usable version string", current)
		}
		minor, err := strconv.Atoi(parts[1])
		if err != nil {
			return "", fmt.Errorf("'%s' is not a usable version string", current)
		}
		return fmt.Sprintf("%d.%d", major, minor+1), nil

	default:
		return "", fmt.Errorf("'%s' is not a usable version string", current)
	}
}

// NewProposalRequest parameters for submitting a change proposal
type NewProposalRequest struct {
	// DocumentID the target document
	DocumentID string
	// Name proposed new name. Ignored when unchanged.
	Name string
	// Validity proposed new validity label. Ignored when unchanged.
	Validity string
	// Justification reason for the change
	Justification string
	// Proposer identity of the submitter
	Proposer string
}

// ProposalDetails a proposal with its decoded change set and target document
type ProposalDetails struct {
	// Proposal the proposal record
	Proposal models.Proposal
	// Changes the decoded change set
	Changes models.ProposalChangeSet
	// Document the target document
	Document models.DocumentRecord
}

// ProposalsService the change proposal workflow
type ProposalsService interface {
	/*
		Submit record a new change proposal against a document

		The proposed version is computed from the document's current one. Only
		fields differing from the current document enter the change set.

			@param ctx context.Context - execution context
			@param request NewProposalRequest - proposal parameters
			@param attachment *AttachmentUpload - proposed replacement attachment, if any
			@param activeDBClient db.Database - existing database transaction
			@returns the recorded proposal
	*/
	Submit(
		ctx context.Context,
		request NewProposalRequest,
		attachment *AttachmentUpload,
		activeDBClient db.Database,
	) (models.Proposal, error)

	/*
		Details fetch a proposal with its change set and target document

			@param ctx context.Context - execution context
			@param proposalID string - the proposal ID
			@param activeDBClient db.Database - existing database transaction
			@returns the proposal details
	*/
	Details(
		ctx context.Context, proposalID string, activeDBClient db.Database,
	) (ProposalDetails, error)

	/*
		List list change proposals

			@param ctx context.Context - execution context
			@param filters db.ProposalQueryFilter - proposal listing filter
			@param activeDBClient db.Database - existing database transaction
			@returns list of proposals
	*/
	List(
		ctx context.Context, filters db.ProposalQueryFilter, activeDBClient db.Database,
	) ([]models.Proposal, error)

	/*
		ListPending list proposals awaiting review

			@param ctx context.Context - execution context
			@param activeDBClient db.Database - existing database transaction
			@returns list of pending proposals
	*/
	ListPending(ctx context.Context, activeDBClient db.Database) ([]models.Proposal, error)

	/*
		Approve approve a pending proposal and merge its changes into the document

			@param ctx context.Context - execution context
			@param proposalID string - the proposal ID
			@param reviewer string - identity of the reviewer
			@param comments string - reviewer comments
			@param activeDBClient db.Database - existing database transaction
			@returns the updated document
	*/
	Approve(
		ctx context.Context,
		proposalID string,
		reviewer string,
		comments string,
		activeDBClient db.Database,
	) (models.DocumentRecord, error)

	/*
		Reject reject a pending proposal

			@param ctx context.Context - execution context
			@param proposalID string - the proposal ID
			@param reviewer string - identity of the reviewer
			@param comments string - reviewer comments
			@param activeDBClient db.Database - existing database transaction
	*/
	Reject(
		ctx context.Context,
		proposalID string,
		reviewer string,
		comments string,
		activeDBClient db.Database,
	) error

	/*
		DownloadAttachment fetch the proposed replacement attachment payload

			@param ctx context.Context - execution context
			@param proposalID string - the proposal ID
			@returns the attachment metadata and payload
	*/
	DownloadAttachment(
		ctx context.Context, proposalID string,
	) (models.Attachment, []byte, error)
}

// proposalsService implements ProposalsService
type proposalsService struct {
	goutils.Component
	persistence db.Client
	store       objectstore.ObjectStore
	sink        notify.NotificationSink
}

/*
NewProposalsService define new change proposal service

	@param persistence db.Client - persistence layer client
	@param store objectstore.ObjectStore - attachment object store
	@param sink notify.NotificationSink - notification sink
	@returns service instance
*/
func NewProposalsService(
	persistence db.Client, store objectstore.ObjectStore, sink notify.NotificationSink,
) (ProposalsService, error) {
	logTags := log.Fields{"package": "doccontrol", "module": "services", "component": "proposals"}

	if sink == nil {
		sink = notify.NewNopSink()
	}

	return &proposalsService{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
		store:       store,
		sink:        sink,
	}, nil
}

/*
Submit record a new change proposal against a document

	@param ctx context.Context - execution context
	@param request NewProposalRequest - proposal parameters
	@param attachment *AttachmentUpload - proposed replacement attachment, if any
	@param activeDBClient db.Database - existing database transaction
	@returns the recorded proposal
*/
func (s *proposalsService) Submit(
	ctx context.Context,
	request NewProposalRequest,
	attachment *AttachmentUpload,
	activeDBClient db.Database,
) (models.Proposal, error) {
	logTags := s.LogTags

	var proposedAttachment models.Attachment
	if attachment != nil {
		if attachment.Payload == nil || attachment.Name == "" {
			return models.Proposal{}, fmt.Errorf(
				"%w: attachment needs a name and a payload", ErrBadAttachment,
			)
		}
		storeRef, err := s.store.Upload(
			ctx, proposalAttachmentPrefix, attachment.ContentType, attachment.Payload,
		)
		if err != nil {
			return models.Proposal{}, fmt.Errorf(
				"failed to store proposed attachment '%s' [%w]", attachment.Name, err,
			)
		}
		proposedAttachment = models.Attachment{
			Name:        attachment.Name,
			ContentType: attachment.ContentType,
			StoreRef:    storeRef,
			Size:        attachment.Size,
		}
	}

	var recorded models.Proposal
	var document models.DocumentRecord
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			document, err = dbClient.GetDocumentRecord(dbCtx, request.DocumentID)
			if err != nil {
				return err
			}

			nextVersion, err := NextVersion(document.Version)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
			}

			changes := models.ProposalChangeSet{
				Version:    nextVersion,
				Attachment: proposedAttachment,
			}
			if request.Name != "" && request.Name != document.Name {
				changes.Name = request.Name
			}
			if request.Validity != "" && request.Validity != document.Validity {
				changes.Validity = request.Validity
			}

			encoded, err := models.EncodeChangeSet(changes)
			if err != nil {
				return err
			}

			recorded, err = dbClient.CreateProposal(dbCtx, models.Proposal{
				DocumentID:    request.DocumentID,
				ChangeSet:     encoded,
				Justification: request.Justification,
				Proposer:      request.Proposer,
			})
			return err
		},
	); dbErr != nil {
		if proposedAttachment.Present() {
			if err := s.store.Delete(ctx, proposedAttachment.StoreRef); err != nil {
				log.WithError(err).
					WithFields(logTags).
					WithField("ref", proposedAttachment.StoreRef).
					Warn("Orphaned attachment cleanup failed")
			}
		}
		return models.Proposal{}, fmt.Errorf(
			"failed to submit proposal against document %s [%w]", request.DocumentID, dbErr,
		)
	}

	_ = s.sink.ProposalSubmitted(ctx, document, recorded)

	log.WithFields(logTags).
		WithField("proposal", recorded.ID).
		WithField("document", document.Code).
		Info("Submitted change proposal")

	return recorded, nil
}

/*
Details fetch a proposal with its change set and target document

	@param ctx context.Context - execution context
	@param proposalID string - the proposal ID
	@param activeDBClient db.Database - existing database transaction
	@returns the proposal details
*/
func (s *proposalsService) Details(
	ctx context.Context, proposalID string, activeDBClient db.Database,
) (ProposalDetails, error) {
	var details ProposalDetails
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			details.Proposal, err = dbClient.GetProposal(dbCtx, proposalID)
			if err != nil {
				return err
			}
			details.Changes, err = details.Proposal.ParseChangeSet()
			if err != nil {
				return err
			}
			details.Document, err = dbClient.GetDocumentRecord(dbCtx, details.Proposal.DocumentID)
			return err
		},
	); dbErr != nil {
		return ProposalDetails{}, dbErr
	}
	return details, nil
}

/*
List list change proposals

	@param ctx context.Context - execution context
	@param filters db.ProposalQueryFilter - proposal listing filter
	@param activeDBClient db.Database - existing database transaction
	@returns list of proposals
*/
func (s *proposalsService) List(
	ctx context.Context, filters db.ProposalQueryFilter, activeDBClient db.Database,
) ([]models.Proposal, error) {
	var proposals []models.Proposal
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			proposals, err = dbClient.ListProposals(dbCtx, filters)
			return err
		},
	); dbErr != nil {
		return nil, dbErr
	}
	return proposals, nil
}

/*
ListPending list proposals awaiting review

	@param ctx context.Context - execution context
	@param activeDBClient db.Database - existing database transaction
	@returns list of pending proposals
*/
func (s *proposalsService) ListPending(
	ctx context.Context, activeDBClient db.Database,
) ([]models.Proposal, error) {
	return s.List(ctx, db.ProposalQueryFilter{
		Status: []models.ProposalStatusENUMType{models.ProposalStatusPending},
	}, activeDBClient)
}

/*
Approve approve a pending proposal and merge its changes into the document

The proposal closes and the document updates atomically. The matching master
list entry is refreshed afterward; a failure there leaves the proposal marked
unsynced but does not undo the approval.

	@param ctx context.Context - execution context
	@param proposalID string - the proposal ID
	@param reviewer string - identity of the reviewer
	@param comments string - reviewer comments
	@param activeDBClient db.Database - existing database transaction
	@returns the updated document
*/
func (s *proposalsService) Approve(
	ctx context.Context,
	proposalID string,
	reviewer string,
	comments string,
	activeDBClient db.Database,
) (models.DocumentRecord, error) {
	logTags := s.LogTags

	var updated models.DocumentRecord
	var proposal models.Proposal
	var displacedAttachment models.Attachment
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			proposal, err = dbClient.GetProposal(dbCtx, proposalID)
			if err != nil {
				return err
			}
			changes, err := proposal.ParseChangeSet()
			if err != nil {
				return err
			}
			document, err := dbClient.GetDocumentRecord(dbCtx, proposal.DocumentID)
			if err != nil {
				return err
			}

			// Guarded close first. A concurrent reviewer loses here.
			if err := dbClient.CloseProposal(
				dbCtx,
				proposalID,
				models.ProposalStatusApproved,
				reviewer,
				comments,
				time.Now().UTC(),
			); err != nil {
				return err
			}

			previousVersion := document.Version
			document.Version = changes.Version
			if changes.Name != "" {
				document.Name = changes.Name
			}
			if changes.Validity != "" {
				document.Validity = changes.Validity
			}
			if changes.Attachment.Present() {
				displacedAttachment = document.Attachment
				document.Attachment = changes.Attachment
			}

			updated, err = dbClient.UpdateDocumentRecord(dbCtx, document)
			if err != nil {
				return err
			}

			// Keep the master list in step with the approved change
			if document.RegistryEntryID != nil {
				entry, err := dbClient.GetRegistryEntry(dbCtx, *document.RegistryEntryID)
				if err != nil {
					log.WithError(err).
						WithFields(logTags).
						WithField("entry", *document.RegistryEntryID).
						Warn("Master list refresh skipped")
					return nil
				}
				entry.Name = updated.Name
				entry.Version = updated.Version
				entry.Validity = updated.Validity
				entry.PreviousVersion = previousVersion
				entry.Status = models.DocumentStatusApproved
				entry.ChangeReason = proposal.Justification
				now := time.Now().UTC()
				entry.ChangedAt = &now
				if _, err := dbClient.UpdateRegistryEntry(dbCtx, entry); err != nil {
					log.WithError(err).
						WithFields(logTags).
						WithField("entry", entry.ID).
						Warn("Master list refresh failed")
					return nil
				}
				if err := dbClient.MarkProposalRegistrySynced(dbCtx, proposalID); err != nil {
					log.WithError(err).
						WithFields(logTags).
						WithField("proposal", proposalID).
						Warn("Sync marker update failed")
				}
			}
			return nil
		},
	); dbErr != nil {
		return models.DocumentRecord{}, fmt.Errorf(
			"failed to approve proposal %s [%w]", proposalID, dbErr,
		)
	}

	// The replaced attachment no longer has a referencing record
	if displacedAttachment.Present() {
		if err := s.store.Delete(ctx, displacedAttachment.StoreRef); err != nil {
			log.WithError(err).
				WithFields(logTags).
				WithField("ref", displacedAttachment.StoreRef).
				Warn("Displaced attachment removal failed")
		}
	}

	proposal.Status = models.ProposalStatusApproved
	proposal.Reviewer = reviewer
	proposal.ReviewComments = comments
	_ = s.sink.ProposalReviewed(ctx, updated, proposal)

	log.WithFields(logTags).
		WithField("proposal", proposalID).
		WithField("document", updated.Code).
		WithField("version", updated.Version).
		Info("Approved change proposal")

	return updated, nil
}

/*
Reject reject a pending proposal

The proposed replacement attachment, if any, is discarded.

	@param ctx context.Context - execution context
	@param proposalID string - the proposal ID
	@param reviewer string - identity of the reviewer
	@param comments string - reviewer comments
	@param activeDBClient db.Database - existing database transaction
*/
func (s *proposalsService) Reject(
	ctx context.Context,
	proposalID string,
	reviewer string,
	comments string,
	activeDBClient db.Database,
) error {
	logTags := s.LogTags

	var proposal models.Proposal
	var document models.DocumentRecord
	var changes models.ProposalChangeSet
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			proposal, err = dbClient.GetProposal(dbCtx, proposalID)
			if err != nil {
				return err
			}
			changes, err = proposal.ParseChangeSet()
			if err != nil {
				return err
			}
			document, err = dbClient.GetDocumentRecord(dbCtx, proposal.DocumentID)
			if err != nil {
				return err
			}
			return dbClient.CloseProposal(
				dbCtx,
				proposalID,
				models.ProposalStatusRejected,
				reviewer,
				comments,
				time.Now().UTC(),
			)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to reject proposal %s [%w]", proposalID, dbErr)
	}

	if changes.Attachment.Present() {
		if err := s.store.Delete(ctx, changes.Attachment.StoreRef); err != nil {
			log.WithError(err).
				WithFields(logTags).
				WithField("ref", changes.Attachment.StoreRef).
				Warn("Rejected attachment removal failed")
		}
	}

	proposal.Status = models.ProposalStatusRejected
	proposal.Reviewer = reviewer
	proposal.ReviewComments = comments
	_ = s.sink.ProposalReviewed(ctx, document, proposal)

	log.WithFields(logTags).
		WithField("proposal", proposalID).
		WithField("document", document.Code).
		Info("Rejected change proposal")

	return nil
}

/*
DownloadAttachment fetch the proposed replacement attachment payload

	@param ctx context.Context - execution context
	@param proposalID string - the proposal ID
	@returns the attachment metadata and payload
*/
func (s *proposalsService) DownloadAttachment(
	ctx context.Context, proposalID string,
) (models.Attachment, []byte, error) {
	details, err := s.Details(ctx, proposalID, nil)
	if err != nil {
		return models.Attachment{}, nil, err
	}
	if !details.Changes.Attachment.Present() {
		return models.Attachment{}, nil, fmt.Errorf(
			"proposal %s has no attachment: %w", proposalID, db.ErrNotFound,
		)
	}

	payload, err := s.store.Download(ctx, details.Changes.Attachment.StoreRef)
	if err != nil {
		return models.Attachment{}, nil, fmt.Errorf(
			"failed to fetch attachment of proposal %s [%w]", proposalID, err,
		)
	}

	return details.Changes.Attachment, payload, nil
}

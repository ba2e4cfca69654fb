package services

import (
	"context"
	"fmt"
	"io"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/sigqms/doccontrol/codegen"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/sigqms/doccontrol/notify"
	"github.com/sigqms/doccontrol/objectstore"
)

// documentAttachmentPrefix object store prefix for document attachments
const documentAttachmentPrefix = "documents"

// AttachmentUpload an attachment payload being uploaded
type AttachmentUpload struct {
	// Name original file name
	Name string
	// ContentType MIME content type
	ContentType string
	// Size payload size in bytes
	Size int64
	// Payload the attachment content
	Payload io.Reader
}

// NewDocumentRequest parameters for recording a new controlled document
type NewDocumentRequest struct {
	// Process owning organizational process
	Process models.ProcessENUMType
	// Code document code. Generated when empty.
	Code string
	// Name document name
	Name string
	// Kind document kind
	Kind models.DocumentKindENUMType
	// Validity validity period label
	Validity string
	// Version initial version string. Defaults to "1".
	Version string
}

// DocumentsService operations over controlled document records
type DocumentsService interface {
	/*
		Create record a new controlled document, optionally with an attachment

		When the request carries no code, the next free one under the document's
		process is assigned. The matching master list entry is recorded as a side
		effect; a failure there does not fail the document.

			@param ctx context.Context - execution context
			@param request NewDocumentRequest - document parameters
			@param attachment *AttachmentUpload - attachment payload, if any
			@param activeDBClient db.Database - existing database transaction
			@returns the recorded document
	*/
	Create(
		ctx context.Context,
		request NewDocumentRequest,
		attachment *AttachmentUpload,
		activeDBClient db.Database,
	) (models.DocumentRecord, error)

	/*
		Get fetch a controlled document by ID

			@param ctx context.Context - execution context
			@param documentID string - the document ID
			@param activeDBClient db.Database - existing database transaction
			@returns the document
	*/
	Get(
		ctx context.Context, documentID string, activeDBClient db.Database,
	) (models.DocumentRecord, error)

	/*
		List list controlled documents

			@param ctx context.Context - execution context
			@param filters db.DocumentRecordQueryFilter - document listing filter
			@param activeDBClient db.Database - existing database transaction
			@returns list of documents
	*/
	List(
		ctx context.Context, filters db.DocumentRecordQueryFilter, activeDBClient db.Database,
	) ([]models.DocumentRecord, error)

	/*
		DownloadAttachment fetch the current attachment payload of a document

			@param ctx context.Context - execution context
			@param documentID string - the document ID
			@returns the attachment metadata and payload
	*/
	DownloadAttachment(
		ctx context.Context, documentID string,
	) (models.Attachment, []byte, error)

	/*
		Delete remove a controlled document and its attachment

		The linked master list entry, if any, is unlinked but kept.

			@param ctx context.Context - execution context
			@param documentID string - the document ID
			@param activeDBClient db.Database - existing database transaction
	*/
	Delete(ctx context.Context, documentID string, activeDBClient db.Database) error
}

// documentsService implements DocumentsService
type documentsService struct {
	goutils.Component
	persistence db.Client
	store       objectstore.ObjectStore
	registry    RegistryService
	sink        notify.NotificationSink
}

/*
NewDocumentsService define new controlled document service

	@param persistence db.Client - persistence layer client
	@param store objectstore.ObjectStore - attachment object store
	@param registry RegistryService - master list service
	@param sink notify.NotificationSink - notification sink
	@returns service instance
*/
func NewDocumentsService(
	persistence db.Client,
	store objectstore.ObjectStore,
	registry RegistryService,
	sink notify.NotificationSink,
) (DocumentsService, error) {
	logTags := log.Fields{"package": "doccontrol", "module": "services", "component": "documents"}

	if sink == nil {
		sink = notify.NewNopSink()
	}

	return &documentsService{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
		store:       store,
		registry:    registry,
		sink:        sink,
	}, nil
}

// uploadAttachment push an attachment payload into the object store
func (s *documentsService) uploadAttachment(
	ctx context.Context, prefix string, upload *AttachmentUpload,
) (models.Attachment, error) {
	if upload.Payload == nil || upload.Name == "" {
		return models.Attachment{}, fmt.Errorf(
			"%w: attachment needs a name and a payload", ErrBadAttachment,
		)
	}

	storeRef, err := s.store.Upload(ctx, prefix, upload.ContentType, upload.Payload)
	if err != nil {
		return models.Attachment{}, fmt.Errorf(
			"failed to store attachment '%s' [%w]", upload.Name, err,
		)
	}

	return models.Attachment{
		Name:        upload.Name,
		ContentType: upload.ContentType,
		StoreRef:    storeRef,
		Size:        upload.Size,
	}, nil
}

/*
Create record a new controlled document, optionally with an attachment

	@param ctx context.Context - execution context
	@param request NewDocumentRequest - document parameters
	@param attachment *AttachmentUpload - attachment payload, if any
	@param activeDBClient db.Database - existing database transaction
	@returns the recorded document
*/
func (s *documentsService) Create(
	ctx context.Context,
	request NewDocumentRequest,
	attachment *AttachmentUpload,
	activeDBClient db.Database,
) (models.DocumentRecord, error) {
	logTags := s.LogTags

	if request.Version == "" {
		request.Version = "1"
	}
	if request.Code != "" {
		if err := codegen.ValidateCodeFormat(request.Code); err != nil {
			return models.DocumentRecord{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
		}
	}

	// Document kind maps onto the code scheme's document type
	docType := models.DocumentTypeRecord
	if request.Kind == models.DocumentKindTemplate {
		docType = models.DocumentTypeInstructional
	}
	prefix, err := codegen.BuildPrefix(docType, request.Process)
	if err != nil {
		return models.DocumentRecord{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}

	document := models.DocumentRecord{
		Process:  request.Process,
		Code:     request.Code,
		Name:     request.Name,
		Kind:     request.Kind,
		Validity: request.Validity,
		Version:  request.Version,
	}

	if attachment != nil {
		stored, err := s.uploadAttachment(ctx, documentAttachmentPrefix, attachment)
		if err != nil {
			return models.DocumentRecord{}, err
		}
		document.Attachment = stored
	}

	var recorded models.DocumentRecord
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			if document.Code == "" {
				taken, err := dbClient.ListTakenCodesWithPrefix(dbCtx, prefix)
				if err != nil {
					return err
				}
				document.Code = codegen.NextInSequence(prefix, taken)
			}

			var err error
			recorded, err = dbClient.CreateDocumentRecord(dbCtx, document)
			if err != nil {
				return err
			}

			// The master list follows the document, but never blocks it
			entry, err := s.registry.CreateFromDocument(dbCtx, recorded, dbClient)
			if err != nil {
				log.WithError(err).
					WithFields(logTags).
					WithField("document", recorded.Code).
					Warn("Master list entry creation failed")
				return nil
			}
			recorded.RegistryEntryID = &entry.ID
			recorded, err = dbClient.UpdateDocumentRecord(dbCtx, recorded)
			return err
		},
	); dbErr != nil {
		// The stored attachment is orphaned without its record
		if document.Attachment.Present() {
			if err := s.store.Delete(ctx, document.Attachment.StoreRef); err != nil {
				log.WithError(err).
					WithFields(logTags).
					WithField("ref", document.Attachment.StoreRef).
					Warn("Orphaned attachment cleanup failed")
			}
		}
		return models.DocumentRecord{}, fmt.Errorf(
			"failed to record document '%s' [%w]", request.Name, dbErr,
		)
	}

	_ = s.sink.DocumentPublished(ctx, recorded)

	log.WithFields(logTags).WithField("document", recorded.Code).Info("Recorded new document")

	return recorded, nil
}

/*
Get fetch a controlled document by ID

	@param ctx context.Context - execution context
	@param documentID string - the document ID
	@param activeDBClient db.Database - existing database transaction
	@returns the document
*/
func (s *documentsService) Get(
	ctx context.Context, documentID string, activeDBClient db.Database,
) (models.DocumentRecord, error) {
	var document models.DocumentRecord
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			document, err = dbClient.GetDocumentRecord(dbCtx, documentID)
			return err
		},
	); dbErr != nil {
		return models.DocumentRecord{}, dbErr
	}
	return document, nil
}

/*
List list controlled documents

	@param ctx context.Context - execution context
	@param filters db.DocumentRecordQueryFilter - document listing filter
	@param activeDBClient db.Database - existing database transaction
	@returns list of documents
*/
func (s *documentsService) List(
	ctx context.Context, filters db.DocumentRecordQueryFilter, activeDBClient db.Database,
) ([]models.DocumentRecord, error) {
	var documents []models.DocumentRecord
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			documents, err = dbClient.ListDocumentRecords(dbCtx, filters)
			return err
		},
	); dbErr != nil {
		return nil, dbErr
	}
	return documents, nil
}

/*
DownloadAttachment fetch the current attachment payload of a document

	@param ctx context.Context - execution context
	@param documentID string - the document ID
	@returns the attachment metadata and payload
*/
func (s *documentsService) DownloadAttachment(
	ctx context.Context, documentID string,
) (models.Attachment, []byte, error) {
	document, err := s.Get(ctx, documentID, nil)
	if err != nil {
		return models.Attachment{}, nil, err
	}
	if !document.Attachment.Present() {
		return models.Attachment{}, nil, fmt.Errorf(
			"document %s has no attachment: %w", documentID, db.ErrNotFound,
		)
	}

	payload, err := s.store.Download(ctx, document.Attachment.StoreRef)
	if err != nil {
		return models.Attachment{}, nil, fmt.Errorf(
			"failed to fetch attachment of document %s [%w]", documentID, err,
		)
	}

	return document.Attachment, payload, nil
}

/*
Delete remove a controlled document and its attachment

	@param ctx context.Context - execution context
	@param documentID string - the document ID
	@param activeDBClient db.Database - existing database transaction
*/
func (s *documentsService) Delete(
	ctx context.Context, documentID string, activeDBClient db.Database,
) error {
	logTags := s.LogTags

	var document models.DocumentRecord
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			document, err = dbClient.GetDocumentRecord(dbCtx, documentID)
			if err != nil {
				return err
			}

			if document.RegistryEntryID != nil {
				if err := dbClient.UnlinkRegistryEntryDocument(
					dbCtx, *document.RegistryEntryID,
				); err != nil {
					log.WithError(err).
						WithFields(logTags).
						WithField("entry", *document.RegistryEntryID).
						Warn("Master list unlink failed")
				}
			}

			return dbClient.DeleteDocumentRecord(dbCtx, documentID)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to delete document %s [%w]", documentID, dbErr)
	}

	if document.Attachment.Present() {
		if err := s.store.Delete(ctx, document.Attachment.StoreRef); err != nil {
			log.WithError(err).
				WithFields(logTags).
				WithField("ref", document.Attachment.StoreRef).
				Warn("Attachment removal failed")
		}
	}

	log.WithFields(logTags).WithField("document", document.Code).Info("Deleted document")

	return nil
}

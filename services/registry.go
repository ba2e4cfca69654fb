package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/sigqms/doccontrol/codegen"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/sigqms/doccontrol/notify"
	"github.com/sigqms/doccontrol/report"
	"golang.org/x/sync/errgroup"
)

// RegistryService operations over the master document list
type RegistryService interface {
	/*
		Create record a new master list entry with a caller supplied code

			@param ctx context.Context - execution context
			@param entry models.RegistryEntry - the entry to record
			@param activeDBClient db.Database - existing database transaction
			@returns the recorded entry
	*/
	Create(
		ctx context.Context, entry models.RegistryEntry, activeDBClient db.Database,
	) (models.RegistryEntry, error)

	/*
		CreateWithAutoCode record a new master list entry, generating its code

			@param ctx context.Context - execution context
			@param entry models.RegistryEntry - the entry to record, code ignored
			@param activeDBClient db.Database - existing database transaction
			@returns the recorded entry
	*/
	CreateWithAutoCode(
		ctx context.Context, entry models.RegistryEntry, activeDBClient db.Database,
	) (models.RegistryEntry, error)

	/*
		CreateFromDocument derive and record a master list entry for a controlled document

			@param ctx context.Context - execution context
			@param document models.DocumentRecord - the source document
			@param activeDBClient db.Database - existing database transaction
			@returns the recorded entry
	*/
	CreateFromDocument(
		ctx context.Context, document models.DocumentRecord, activeDBClient db.Database,
	) (models.RegistryEntry, error)

	/*
		Get fetch a master list entry by ID

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param activeDBClient db.Database - existing database transaction
			@returns the entry
	*/
	Get(ctx context.Context, entryID string, activeDBClient db.Database) (models.RegistryEntry, error)

	/*
		GetByCode fetch the active master list entry carrying a code

			@param ctx context.Context - execution context
			@param code string - the document code
			@param activeDBClient db.Database - existing database transaction
			@returns the entry
	*/
	GetByCode(ctx context.Context, code string, activeDBClient db.Database) (models.RegistryEntry, error)

	/*
		List list master list entries

			@param ctx context.Context - execution context
			@param filters db.RegistryEntryQueryFilter - entry listing filter
			@param activeDBClient db.Database - existing database transaction
			@returns list of entries
	*/
	List(
		ctx context.Context, filters db.RegistryEntryQueryFilter, activeDBClient db.Database,
	) ([]models.RegistryEntry, error)

	/*
		ListByStatus list active master list entries in a status

			@param ctx context.Context - execution context
			@param status models.DocumentStatusENUMType - the status
			@param activeDBClient db.Database - existing database transaction
			@returns list of entries
	*/
	ListByStatus(
		ctx context.Context, status models.DocumentStatusENUMType, activeDBClient db.Database,
	) ([]models.RegistryEntry, error)

	/*
		Update persist a modified master list entry

		A changed code is re-validated and re-checked for occupancy before it sticks.

			@param ctx context.Context - execution context
			@param entry models.RegistryEntry - the modified entry
			@param activeDBClient db.Database - existing database transaction
			@returns the persisted entry
	*/
	Update(
		ctx context.Context, entry models.RegistryEntry, activeDBClient db.Database,
	) (models.RegistryEntry, error)

	/*
		Approve approve a master list entry pending approval

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param comments string - reviewer comments recorded with the change
			@param activeDBClient db.Database - existing database transaction
	*/
	Approve(ctx context.Context, entryID string, comments string, activeDBClient db.Database) error

	/*
		Reject reject a master list entry pending approval

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param comments string - reviewer comments recorded with the change
			@param activeDBClient db.Database - existing database transaction
	*/
	Reject(ctx context.Context, entryID string, comments string, activeDBClient db.Database) error

	/*
		OverrideStatus force a master list entry into a status regardless of its
		current one. Meant for administrative corrections.

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param status models.DocumentStatusENUMType - the new status
			@param reason string - reason recorded with the change
			@param activeDBClient db.Database - existing database transaction
	*/
	OverrideStatus(
		ctx context.Context,
		entryID string,
		status models.DocumentStatusENUMType,
		reason string,
		activeDBClient db.Database,
	) error

	/*
		LinkDocument associate a master list entry with a controlled document

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param documentID string - the document record ID
			@param activeDBClient db.Database - existing database transaction
	*/
	LinkDocument(
		ctx context.Context, entryID string, documentID string, activeDBClient db.Database,
	) error

	/*
		UnlinkDocument clear the document association of a master list entry

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param activeDBClient db.Database - existing database transaction
	*/
	UnlinkDocument(ctx context.Context, entryID string, activeDBClient db.Database) error

	/*
		SoftDelete deactivate a master list entry, releasing its code

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param activeDBClient db.Database - existing database transaction
	*/
	SoftDelete(ctx context.Context, entryID string, activeDBClient db.Database) error

	/*
		Restore reactivate a deactivated master list entry

		Fails if the entry's code was taken by another active entry in the meantime.

			@param ctx context.Context - execution context
			@param entryID string - the entry ID
			@param activeDBClient db.Database - existing database transaction
	*/
	Restore(ctx context.Context, entryID string, activeDBClient db.Database) error

	/*
		Stats aggregate counts over the active master list

			@param ctx context.Context - execution context
			@returns the aggregates
	*/
	Stats(ctx context.Context) (models.RegistryStats, error)

	/*
		ExportMasterList render the master list as a spreadsheet

			@param ctx context.Context - execution context
			@param filters db.RegistryEntryQueryFilter - entry selection filter
			@returns the rendered workbook
	*/
	ExportMasterList(
		ctx context.Context, filters db.RegistryEntryQueryFilter,
	) (*bytes.Buffer, error)
}

// registryService implements RegistryService
type registryService struct {
	goutils.Component
	persistence db.Client
	sink        notify.NotificationSink
}

/*
NewRegistryService define new master list service

	@param persistence db.Client - persistence layer client
	@param sink notify.NotificationSink - notification sink
	@returns service instance
*/
func NewRegistryService(
	persistence db.Client, sink notify.NotificationSink,
) (RegistryService, error) {
	logTags := log.Fields{"package": "doccontrol", "module": "services", "component": "registry"}

	if sink == nil {
		sink = notify.NewNopSink()
	}

	return &registryService{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
		sink:        sink,
	}, nil
}

// checkCodeMatchesEntry verify a code's segments agree with the entry metadata
func checkCodeMatchesEntry(entry models.RegistryEntry) error {
	if err := codegen.ValidateCodeFormat(entry.Code); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}

	prefix, err := codegen.BuildPrefix(entry.DocType, entry.Process)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	parsed, err := codegen.ParseCode(entry.Code)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	if fmt.Sprintf("%s-%s-", parsed.DocTypePrefix, parsed.ProcessPrefix) != prefix {
		return fmt.Errorf(
			"%w: code '%s' does not belong to %s/%s",
			ErrInvalidArgument,
			entry.Code,
			entry.DocType,
			entry.Process,
		)
	}

	return nil
}

/*
Create record a new master list entry with a caller supplied code

	@param ctx context.Context - execution context
	@param entry models.RegistryEntry - the entry to record
	@param activeDBClient db.Database - existing database transaction
	@returns the recorded entry
*/
func (s *registryService) Create(
	ctx context.Context, entry models.RegistryEntry, activeDBClient db.Database,
) (models.RegistryEntry, error) {
	if err := checkCodeMatchesEntry(entry); err != nil {
		return models.RegistryEntry{}, err
	}

	var recorded models.RegistryEntry
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			recorded, err = dbClient.CreateRegistryEntry(dbCtx, entry)
			return err
		},
	); dbErr != nil {
		return models.RegistryEntry{}, fmt.Errorf(
			"failed to record entry '%s' [%w]", entry.Code, dbErr,
		)
	}

	if recorded.Status == models.DocumentStatusPendingApproval {
		_ = s.sink.EntryApprovalRequested(ctx, recorded)
	}

	return recorded, nil
}

/*
CreateWithAutoCode record a new master list entry, generating its code

	@param ctx context.Context - execution context
	@param entry models.RegistryEntry - the entry to record, code ignored
	@param activeDBClient db.Database - existing database transaction
	@returns the recorded entry
*/
func (s *registryService) CreateWithAutoCode(
	ctx context.Context, entry models.RegistryEntry, activeDBClient db.Database,
) (models.RegistryEntry, error) {
	prefix, err := codegen.BuildPrefix(entry.DocType, entry.Process)
	if err != nil {
		return models.RegistryEntry{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}

	var recorded models.RegistryEntry
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			taken, err := dbClient.ListTakenCodesWithPrefix(dbCtx, prefix)
			if err != nil {
				return err
			}
			entry.Code = codegen.NextInSequence(prefix, taken)
			recorded, err = dbClient.CreateRegistryEntry(dbCtx, entry)
			return err
		},
	); dbErr != nil {
		return models.RegistryEntry{}, fmt.Errorf(
			"failed to record entry under '%s' [%w]", prefix, dbErr,
		)
	}

	if recorded.Status == models.DocumentStatusPendingApproval {
		_ = s.sink.EntryApprovalRequested(ctx, recorded)
	}

	return recorded, nil
}

/*
CreateFromDocument derive and record a master list entry for a controlled document

	@param ctx context.Context - execution context
	@param document models.DocumentRecord - the source document
	@param activeDBClient db.Database - existing database transaction
	@returns the recorded entry
*/
func (s *registryService) CreateFromDocument(
	ctx context.Context, document models.DocumentRecord, activeDBClient db.Database,
) (models.RegistryEntry, error) {
	docType := models.DocumentTypeRecord
	if document.Kind == models.DocumentKindTemplate {
		docType = models.DocumentTypeInstructional
	}
	if parsed, err := codegen.ParseCode(document.Code); err == nil {
		for candidate, prefix := range map[models.DocumentTypeENUMType]string{
			models.DocumentTypeManual:        "MN",
			models.DocumentTypeProcedure:     "PR",
			models.DocumentTypeRecord:        "RE",
			models.DocumentTypeInstructional: "IN",
		} {
			if prefix == parsed.DocTypePrefix {
				docType = candidate
			}
		}
	}

	entry := models.RegistryEntry{
		Code:        document.Code,
		Name:        document.Name,
		Process:     document.Process,
		DocType:     docType,
		Version:     document.Version,
		Responsible: "Coordinador de Calidad",
		Validity:    document.Validity,
		Status:      models.DocumentStatusApproved,
		DocumentID:  &document.ID,
		Active:      true,
	}

	var recorded models.RegistryEntry
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			recorded, err = dbClient.CreateRegistryEntry(dbCtx, entry)
			return err
		},
	); dbErr != nil {
		return models.RegistryEntry{}, fmt.Errorf(
			"failed to derive entry from document '%s' [%w]", document.Code, dbErr,
		)
	}

	return recorded, nil
}

/*
Get fetch a master list entry by ID

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param activeDBClient db.Database - existing database transaction
	@returns the entry
*/
func (s *registryService) Get(
	ctx context.Context, entryID string, activeDBClient db.Database,
) (models.RegistryEntry, error) {
	var entry models.RegistryEntry
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			entry, err = dbClient.GetRegistryEntry(dbCtx, entryID)
			return err
		},
	); dbErr != nil {
		return models.RegistryEntry{}, dbErr
	}
	return entry, nil
}

/*
GetByCode fetch the active master list entry carrying a code

	@param ctx context.Context - execution context
	@param code string - the document code
	@param activeDBClient db.Database - existing database transaction
	@returns the entry
*/
func (s *registryService) GetByCode(
	ctx context.Context, code string, activeDBClient db.Database,
) (models.RegistryEntry, error) {
	var entry models.RegistryEntry
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			entry, err = dbClient.GetRegistryEntryByCode(dbCtx, code)
			return err
		},
	); dbErr != nil {
		return models.RegistryEntry{}, dbErr
	}
	return entry, nil
}

/*
List list master list entries

	@param ctx context.Context - execution context
	@param filters db.RegistryEntryQueryFilter - entry listing filter
	@param activeDBClient db.Database - existing database transaction
	@returns list of entries
*/
func (s *registryService) List(
	ctx context.Context, filters db.RegistryEntryQueryFilter, activeDBClient db.Database,
) ([]models.RegistryEntry, error) {
	var entries []models.RegistryEntry
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			entries, err = dbClient.ListRegistryEntries(dbCtx, filters)
			return err
		},
	); dbErr != nil {
		return nil, dbErr
	}
	return entries, nil
}

/*
ListByStatus list active master list entries in a status

	@param ctx context.Context - execution context
	@param status models.DocumentStatusENUMType - the status
	@param activeDBClient db.Database - existing database transaction
	@returns list of entries
*/
func (s *registryService) ListByStatus(
	ctx context.Context, status models.DocumentStatusENUMType, activeDBClient db.Database,
) ([]models.RegistryEntry, error) {
	activeOnly := true
	return s.List(ctx, db.RegistryEntryQueryFilter{
		Status: []models.DocumentStatusENUMType{status},
		Active: &activeOnly,
	}, activeDBClient)
}

/*
Update persist a modified master list entry

A changed code is re-validated and re-checked for occupancy before it sticks.

	@param ctx context.Context - execution context
	@param entry models.RegistryEntry - the modified entry
	@param activeDBClient db.Database - existing database transaction
	@returns the persisted entry
*/
func (s *registryService) Update(
	ctx context.Context, entry models.RegistryEntry, activeDBClient db.Database,
) (models.RegistryEntry, error) {
	var updated models.RegistryEntry
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			stored, err := dbClient.GetRegistryEntry(dbCtx, entry.ID)
			if err != nil {
				return err
			}
			if stored.Code != entry.Code {
				if err := checkCodeMatchesEntry(entry); err != nil {
					return err
				}
				taken, err := dbClient.CodeTaken(dbCtx, entry.Code)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("code '%s' already in use: %w", entry.Code, db.ErrConflict)
				}
			}
			updated, err = dbClient.UpdateRegistryEntry(dbCtx, entry)
			return err
		},
	); dbErr != nil {
		return models.RegistryEntry{}, fmt.Errorf(
			"failed to update entry %s [%w]", entry.ID, dbErr,
		)
	}
	return updated, nil
}

// reviewStatusChange shared approval and rejection flow
func (s *registryService) reviewStatusChange(
	ctx context.Context,
	entryID string,
	target models.DocumentStatusENUMType,
	comments string,
	activeDBClient db.Database,
) error {
	var reviewed models.RegistryEntry
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			entry, err := dbClient.GetRegistryEntry(dbCtx, entryID)
			if err != nil {
				return err
			}
			if entry.Status != models.DocumentStatusPendingApproval {
				return fmt.Errorf(
					"%w: entry %s is '%s', not pending approval",
					ErrInvalidArgument,
					entryID,
					entry.Status,
				)
			}
			if err := dbClient.SetRegistryEntryStatus(dbCtx, entryID, target, comments); err != nil {
				return err
			}
			reviewed, err = dbClient.GetRegistryEntry(dbCtx, entryID)
			return err
		},
	); dbErr != nil {
		return fmt.Errorf("failed to review entry %s [%w]", entryID, dbErr)
	}

	_ = s.sink.EntryStatusChanged(ctx, reviewed)

	return nil
}

/*
Approve approve a master list entry pending approval

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param comments string - reviewer comments recorded with the change
	@param activeDBClient db.Database - existing database transaction
*/
func (s *registryService) Approve(
	ctx context.Context, entryID string, comments string, activeDBClient db.Database,
) error {
	return s.reviewStatusChange(
		ctx, entryID, models.DocumentStatusApproved, comments, activeDBClient,
	)
}

/*
Reject reject a master list entry pending approval

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param comments string - reviewer comments recorded with the change
	@param activeDBClient db.Database - existing database transaction
*/
func (s *registryService) Reject(
	ctx context.Context, entryID string, comments string, activeDBClient db.Database,
) error {
	return s.reviewStatusChange(
		ctx, entryID, models.DocumentStatusRejected, comments, activeDBClient,
	)
}

/*
OverrideStatus force a master list entry into a status regardless of its
current one. Meant for administrative corrections.

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param status models.DocumentStatusENUMType - the new status
	@param reason string - reason recorded with the change
	@param activeDBClient db.Database - existing database transaction
*/
func (s *registryService) OverrideStatus(
	ctx context.Context,
	entryID string,
	status models.DocumentStatusENUMType,
	reason string,
	activeDBClient db.Database,
) error {
	var overridden models.RegistryEntry
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			if err := dbClient.SetRegistryEntryStatus(dbCtx, entryID, status, reason); err != nil {
				return err
			}
			var err error
			overridden, err = dbClient.GetRegistryEntry(dbCtx, entryID)
			return err
		},
	); dbErr != nil {
		return fmt.Errorf("failed to override status of entry %s [%w]", entryID, dbErr)
	}

	log.WithFields(s.LogTags).
		WithField("entry", entryID).
		WithField("status", status).
		Info("Overrode entry status")

	if status == models.DocumentStatusApproved || status == models.DocumentStatusRejected {
		_ = s.sink.EntryStatusChanged(ctx, overridden)
	}

	return nil
}

/*
LinkDocument associate a master list entry with a controlled document

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param documentID string - the document record ID
	@param activeDBClient db.Database - existing database transaction
*/
func (s *registryService) LinkDocument(
	ctx context.Context, entryID string, documentID string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			document, err := dbClient.GetDocumentRecord(dbCtx, documentID)
			if err != nil {
				return err
			}
			if err := dbClient.LinkRegistryEntryDocument(dbCtx, entryID, documentID); err != nil {
				return err
			}
			document.RegistryEntryID = &entryID
			_, err = dbClient.UpdateDocumentRecord(dbCtx, document)
			return err
		},
	); dbErr != nil {
		return fmt.Errorf(
			"failed to link entry %s with document %s [%w]", entryID, documentID, dbErr,
		)
	}
	return nil
}

/*
UnlinkDocument clear the document association of a master list entry

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param activeDBClient db.Database - existing database transaction
*/
func (s *registryService) UnlinkDocument(
	ctx context.Context, entryID string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			entry, err := dbClient.GetRegistryEntry(dbCtx, entryID)
			if err != nil {
				return err
			}
			if entry.DocumentID != nil {
				document, err := dbClient.GetDocumentRecord(dbCtx, *entry.DocumentID)
				if err == nil {
					document.RegistryEntryID = nil
					if _, err := dbClient.UpdateDocumentRecord(dbCtx, document); err != nil {
						return err
					}
				}
			}
			return dbClient.UnlinkRegistryEntryDocument(dbCtx, entryID)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to unlink entry %s [%w]", entryID, dbErr)
	}
	return nil
}

/*
SoftDelete deactivate a master list entry, releasing its code

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param activeDBClient db.Database - existing database transaction
*/
func (s *registryService) SoftDelete(
	ctx context.Context, entryID string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.SetRegistryEntryActive(dbCtx, entryID, false)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to deactivate entry %s [%w]", entryID, dbErr)
	}
	return nil
}

/*
Restore reactivate a deactivated master list entry

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param activeDBClient db.Database - existing database transaction
*/
func (s *registryService) Restore(
	ctx context.Context, entryID string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			entry, err := dbClient.GetRegistryEntry(dbCtx, entryID)
			if err != nil {
				return err
			}
			taken, err := dbClient.CodeTaken(dbCtx, entry.Code)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf(
					"%w: code '%s' was reassigned while entry %s was inactive",
					ErrInvalidArgument,
					entry.Code,
					entryID,
				)
			}
			return dbClient.SetRegistryEntryActive(dbCtx, entryID, true)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to restore entry %s [%w]", entryID, dbErr)
	}
	return nil
}

/*
Stats aggregate counts over the active master list

The grouped aggregates run concurrently on separate sessions.

	@param ctx context.Context - execution context
	@returns the aggregates
*/
func (s *registryService) Stats(ctx context.Context) (models.RegistryStats, error) {
	var stats models.RegistryStats

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.persistence.UseDatabase(
			groupCtx, func(dbCtx context.Context, dbClient db.Database) error {
				var err error
				stats.Total, err = dbClient.CountRegistryEntries(dbCtx)
				return err
			},
		)
	})
	group.Go(func() error {
		return s.persistence.UseDatabase(
			groupCtx, func(dbCtx context.Context, dbClient db.Database) error {
				var err error
				stats.ByStatus, err = dbClient.CountRegistryEntriesByStatus(dbCtx)
				return err
			},
		)
	})
	group.Go(func() error {
		return s.persistence.UseDatabase(
			groupCtx, func(dbCtx context.Context, dbClient db.Database) error {
				var err error
				stats.ByProcess, err = dbClient.CountRegistryEntriesByProcess(dbCtx)
				return err
			},
		)
	})
	group.Go(func() error {
		return s.persistence.UseDatabase(
			groupCtx, func(dbCtx context.Context, dbClient db.Database) error {
				var err error
				stats.ByDocType, err = dbClient.CountRegistryEntriesByDocType(dbCtx)
				return err
			},
		)
	})

	if err := group.Wait(); err != nil {
		return models.RegistryStats{}, fmt.Errorf("failed to aggregate master list [%w]", err)
	}

	return stats, nil
}

/*
ExportMasterList render the master list as a spreadsheet

Without an explicit active filter, only active entries are exported.

	@param ctx context.Context - execution context
	@param filters db.RegistryEntryQueryFilter - entry selection filter
	@returns the rendered workbook
*/
func (s *registryService) ExportMasterList(
	ctx context.Context, filters db.RegistryEntryQueryFilter,
) (*bytes.Buffer, error) {
	if filters.Active == nil {
		activeOnly := true
		filters.Active = &activeOnly
	}

	entries, err := s.List(ctx, filters, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to collect entries for export [%w]", err)
	}

	rendered, err := report.BuildMasterList(entries)
	if err != nil {
		return nil, err
	}

	log.WithFields(s.LogTags).WithField("entries", len(entries)).Info("Exported master list")

	return rendered, nil
}

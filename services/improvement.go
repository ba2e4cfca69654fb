package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/sigqms/doccontrol/notify"
	"github.com/sigqms/doccontrol/objectstore"
	"github.com/sigqms/doccontrol/report"
)

// templateStorePrefix object store prefix for report template workbooks
const templateStorePrefix = "templates"

// ImprovementService operations over the improvement action log
type ImprovementService interface {
	/*
		Create record a new improvement action

			@param ctx context.Context - execution context
			@param action models.ImprovementAction - the action to record
			@param activeDBClient db.Database - existing database transaction
			@returns the recorded action
	*/
	Create(
		ctx context.Context, action models.ImprovementAction, activeDBClient db.Database,
	) (models.ImprovementAction, error)

	/*
		Get fetch an improvement action by ID

			@param ctx context.Context - execution context
			@param actionID string - the action ID
			@param activeDBClient db.Database - existing database transaction
			@returns the action
	*/
	Get(
		ctx context.Context, actionID string, activeDBClient db.Database,
	) (models.ImprovementAction, error)

	/*
		List list improvement actions

			@param ctx context.Context - execution context
			@param filters db.ImprovementActionQueryFilter - action listing filter
			@param activeDBClient db.Database - existing database transaction
			@returns list of actions
	*/
	List(
		ctx context.Context, filters db.ImprovementActionQueryFilter, activeDBClient db.Database,
	) ([]models.ImprovementAction, error)

	/*
		Update persist a modified improvement action

			@param ctx context.Context - execution context
			@param action models.ImprovementAction - the modified action
			@param activeDBClient db.Database - existing database transaction
			@returns the persisted action
	*/
	Update(
		ctx context.Context, action models.ImprovementAction, activeDBClient db.Database,
	) (models.ImprovementAction, error)

	/*
		StoreTemplate store a report template workbook and make it the active one

			@param ctx context.Context - execution context
			@param upload AttachmentUpload - the template workbook payload
			@param activeDBClient db.Database - existing database transaction
			@returns the recorded template
	*/
	StoreTemplate(
		ctx context.Context, upload AttachmentUpload, activeDBClient db.Database,
	) (models.ReportTemplate, error)

	/*
		ExportLog render the improvement action log onto the active template

			@param ctx context.Context - execution context
			@param filters db.ImprovementActionQueryFilter - action selection filter
			@returns the rendered workbook, and a dated download filename
	*/
	ExportLog(
		ctx context.Context, filters db.ImprovementActionQueryFilter,
	) (*bytes.Buffer, string, error)
}

// improvementService implements ImprovementService
type improvementService struct {
	goutils.Component
	persistence db.Client
	store       objectstore.ObjectStore
	sink        notify.NotificationSink
}

/*
NewImprovementService define new improvement action service

	@param persistence db.Client - persistence layer client
	@param store objectstore.ObjectStore - template object store
	@param sink notify.NotificationSink - notification sink
	@returns service instance
*/
func NewImprovementService(
	persistence db.Client, store objectstore.ObjectStore, sink notify.NotificationSink,
) (ImprovementService, error) {
	logTags := log.Fields{"package": "doccontrol", "module": "services", "component": "improvement"}

	if sink == nil {
		sink = notify.NewNopSink()
	}

	return &improvementService{
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
Create record a new improvement action

	@param ctx context.Context - execution context
	@param action models.ImprovementAction - the action to record
	@param activeDBClient db.Database - existing database transaction
	@returns the recorded action
*/
func (s *improvementService) Create(
	ctx context.Context, action models.ImprovementAction, activeDBClient db.Database,
) (models.ImprovementAction, error) {
	var recorded models.ImprovementAction
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			recorded, err = dbClient.CreateImprovementAction(dbCtx, action)
			return err
		},
	); dbErr != nil {
		return models.ImprovementAction{}, fmt.Errorf(
			"failed to record action '%s' [%w]", action.Consecutive, dbErr,
		)
	}

	_ = s.sink.ActionAssigned(ctx, recorded)

	log.WithFields(s.LogTags).
		WithField("action", recorded.Consecutive).
		Info("Recorded improvement action")

	return recorded, nil
}

/*
Get fetch an improvement action by ID

	@param ctx context.Context - execution context
	@param actionID string - the action ID
	@param activeDBClient db.Database - existing database transaction
	@returns the action
*/
func (s *improvementService) Get(
	ctx context.Context, actionID string, activeDBClient db.Database,
) (models.ImprovementAction, error) {
	var action models.ImprovementAction
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			action, err = dbClient.GetImprovementAction(dbCtx, actionID)
			return err
		},
	); dbErr != nil {
		return models.ImprovementAction{}, dbErr
	}
	return action, nil
}

/*
List list improvement actions

	@param ctx context.Context - execution context
	@param filters db.ImprovementActionQueryFilter - action listing filter
	@param activeDBClient db.Database - existing database transaction
	@returns list of actions
*/
func (s *improvementService) List(
	ctx context.Context, filters db.ImprovementActionQueryFilter, activeDBClient db.Database,
) ([]models.ImprovementAction, error) {
	var actions []models.ImprovementAction
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			actions, err = dbClient.ListImprovementActions(dbCtx, filters)
			return err
		},
	); dbErr != nil {
		return nil, dbErr
	}
	return actions, nil
}

/*
Update persist a modified improvement action

	@param ctx context.Context - execution context
	@param action models.ImprovementAction - the modified action
	@param activeDBClient db.Database - existing database transaction
	@returns the persisted action
*/
func (s *improvementService) Update(
	ctx context.Context, action models.ImprovementAction, activeDBClient db.Database,
) (models.ImprovementAction, error) {
	var updated models.ImprovementAction
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			updated, err = dbClient.UpdateImprovementAction(dbCtx, action)
			return err
		},
	); dbErr != nil {
		return models.ImprovementAction{}, fmt.Errorf(
			"failed to update action %s [%w]", action.ID, dbErr,
		)
	}
	return updated, nil
}

/*
StoreTemplate store a report template workbook and make it the active one

	@param ctx context.Context - execution context
	@param upload AttachmentUpload - the template workbook payload
	@param activeDBClient db.Database - existing database transaction
	@returns the recorded template
*/
func (s *improvementService) StoreTemplate(
	ctx context.Context, upload AttachmentUpload, activeDBClient db.Database,
) (models.ReportTemplate, error) {
	if upload.Payload == nil || upload.Name == "" {
		return models.ReportTemplate{}, fmt.Errorf(
			"%w: template needs a name and a payload", ErrBadAttachment,
		)
	}

	storeRef, err := s.store.Upload(ctx, templateStorePrefix, upload.ContentType, upload.Payload)
	if err != nil {
		return models.ReportTemplate{}, fmt.Errorf(
			"failed to store template '%s' [%w]", upload.Name, err,
		)
	}

	var recorded models.ReportTemplate
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			recorded, err = dbClient.RecordReportTemplate(dbCtx, models.ReportTemplate{
				Name:        upload.Name,
				Extension:   filepath.Ext(upload.Name),
				ContentType: upload.ContentType,
				StoreRef:    storeRef,
			})
			return err
		},
	); dbErr != nil {
		if err := s.store.Delete(ctx, storeRef); err != nil {
			log.WithError(err).
				WithFields(s.LogTags).
				WithField("ref", storeRef).
				Warn("Orphaned template cleanup failed")
		}
		return models.ReportTemplate{}, fmt.Errorf(
			"failed to record template '%s' [%w]", upload.Name, dbErr,
		)
	}

	log.WithFields(s.LogTags).WithField("template", recorded.Name).Info("Stored report template")

	return recorded, nil
}

/*
ExportLog render the improvement action log onto the active template

	@param ctx context.Context - execution context
	@param filters db.ImprovementActionQueryFilter - action selection filter
	@returns the rendered workbook, and a dated download filename
*/
func (s *improvementService) ExportLog(
	ctx context.Context, filters db.ImprovementActionQueryFilter,
) (*bytes.Buffer, string, error) {
	var template models.ReportTemplate
	var actions []models.ImprovementAction
	if dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			template, err = dbClient.GetActiveReportTemplate(dbCtx)
			if err != nil {
				return err
			}
			actions, err = dbClient.ListImprovementActions(dbCtx, filters)
			return err
		},
	); dbErr != nil {
		return nil, "", fmt.Errorf("failed to collect actions for export [%w]", dbErr)
	}

	templateBytes, err := s.store.Download(ctx, template.StoreRef)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch template '%s' [%w]", template.Name, err)
	}

	rendered, err := report.RenderImprovementLog(templateBytes, actions)
	if err != nil {
		return nil, "", err
	}

	extension := template.Extension
	if extension == "" {
		extension = ".xlsx"
	}
	filename := fmt.Sprintf(
		"registro_acciones_%s%s", time.Now().UTC().Format("2006-01-02"), extension,
	)

	log.WithFields(s.LogTags).WithField("actions", len(actions)).Info("Exported improvement log")

	return rendered, filename, nil
}

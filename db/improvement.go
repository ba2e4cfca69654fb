package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sigqms/doccontrol/models"
	"gorm.io/gorm"
)

// ======================================================================================
// Improvement actions

/*
CreateImprovementAction record a new improvement action

	@param ctx context.Context - execution context
	@param action models.ImprovementAction - the action to record. ID is assigned here.
	@returns the recorded action
*/
func (d *databaseImpl) CreateImprovementAction(
	_ context.Context, action models.ImprovementAction,
) (models.ImprovementAction, error) {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}

	newEntry := ImprovementActionDBEntry{ImprovementAction: action}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.ImprovementAction{}, fmt.Errorf(
			"new improvement action '%s' is not valid [%w]", action.Consecutive, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.ImprovementAction{}, fmt.Errorf(
			"new improvement action '%s' failed insert [%w]", action.Consecutive, tmp.Error,
		)
	}

	return newEntry.ImprovementAction, nil
}

/*
GetImprovementAction fetch an improvement action by ID

	@param ctx context.Context - execution context
	@param actionID string - the action ID
	@returns the action
*/
func (d *databaseImpl) GetImprovementAction(
	_ context.Context, actionID string,
) (models.ImprovementAction, error) {
	var entry ImprovementActionDBEntry
	if tmp := d.db.Where("id = ?", actionID).First(&entry); tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return models.ImprovementAction{}, fmt.Errorf(
				"improvement action %s: %w", actionID, ErrNotFound,
			)
		}
		return models.ImprovementAction{}, fmt.Errorf(
			"failed to fetch improvement action %s [%w]", actionID, tmp.Error,
		)
	}

	return entry.ImprovementAction, nil
}

/*
ListImprovementActions list improvement actions

	@param ctx context.Context - execution context
	@param filters ImprovementActionQueryFilter - entry listing filter
	@returns list of actions
*/
func (d *databaseImpl) ListImprovementActions(
	_ context.Context, filters ImprovementActionQueryFilter,
) ([]models.ImprovementAction, error) {
	query := d.db.Model(&ImprovementActionDBEntry{})

	if filters.Process != nil {
		query = query.Where("process = ?", *filters.Process)
	}
	if filters.Origin != nil {
		query = query.Where("origin = ?", *filters.Origin)
	}
	if filters.Class != nil {
		query = query.Where("class = ?", *filters.Class)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("date asc")

	var entries []ImprovementActionDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list improvement actions [%w]", tmp.Error)
	}

	result := []models.ImprovementAction{}
	for _, entry := range entries {
		result = append(result, entry.ImprovementAction)
	}

	return result, nil
}

/*
UpdateImprovementAction persist a modified improvement action

	@param ctx context.Context - execution context
	@param action models.ImprovementAction - the modified action
	@returns the persisted action
*/
func (d *databaseImpl) UpdateImprovementAction(
	ctx context.Context, action models.ImprovementAction,
) (models.ImprovementAction, error) {
	stored, err := d.GetImprovementAction(ctx, action.ID)
	if err != nil {
		return models.ImprovementAction{}, err
	}
	action.CreatedAt = stored.CreatedAt

	updated := ImprovementActionDBEntry{ImprovementAction: action}

	if err := d.validator.Struct(&updated); err != nil {
		return models.ImprovementAction{}, fmt.Errorf(
			"updated improvement action %s is not valid [%w]", action.ID, err,
		)
	}

	if tmp := d.db.Save(&updated); tmp.Error != nil {
		return models.ImprovementAction{}, fmt.Errorf(
			"failed to update improvement action %s [%w]", action.ID, tmp.Error,
		)
	}

	return updated.ImprovementAction, nil
}

// ======================================================================================
// Report templates

/*
RecordReportTemplate record a new report template and make it the active one

Any previously active template is deactivated.

	@param ctx context.Context - execution context
	@param template models.ReportTemplate - the template to record. ID is assigned here.
	@returns the recorded template
*/
func (d *databaseImpl) RecordReportTemplate(
	_ context.Context, template models.ReportTemplate,
) (models.ReportTemplate, error) {
	if template.ID == "" {
		template.ID = ulid.Make().String()
	}
	template.Active = true

	newEntry := ReportTemplateDBEntry{ReportTemplate: template}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.ReportTemplate{}, fmt.Errorf(
			"new report template '%s' is not valid [%w]", template.Name, err,
		)
	}

	if tmp := d.db.
		Model(&ReportTemplateDBEntry{}).
		Where("active = ?", true).
		Update("active", false); tmp.Error != nil {
		return models.ReportTemplate{}, fmt.Errorf(
			"failed to deactivate previous report template [%w]", tmp.Error,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.ReportTemplate{}, fmt.Errorf(
			"new report template '%s' failed insert [%w]", template.Name, tmp.Error,
		)
	}

	return newEntry.ReportTemplate, nil
}

/*
GetActiveReportTemplate fetch the currently active report template

	@param ctx context.Context - execution context
	@returns the template
*/
func (d *databaseImpl) GetActiveReportTemplate(
	_ context.Context,
) (models.ReportTemplate, error) {
	var entry ReportTemplateDBEntry
	if tmp := d.db.Where("active = ?", true).First(&entry); tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return models.ReportTemplate{}, fmt.Errorf("no active report template: %w", ErrNotFound)
		}
		return models.ReportTemplate{}, fmt.Errorf(
			"failed to fetch active report template [%w]", tmp.Error,
		)
	}

	return entry.ReportTemplate, nil
}

/*
ListReportTemplates list stored report templates

	@param ctx context.Context - execution context
	@param filters CommonListEntryQueryFilter - entry listing filter
	@returns list of templates
*/
func (d *databaseImpl) ListReportTemplates(
	_ context.Context, filters CommonListEntryQueryFilter,
) ([]models.ReportTemplate, error) {
	query := d.db.Model(&ReportTemplateDBEntry{})

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("created_at desc")

	var entries []ReportTemplateDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list report templates [%w]", tmp.Error)
	}

	result := []models.ReportTemplate{}
	for _, entry := range entries {
		result = append(result, entry.ReportTemplate)
	}

	return result, nil
}

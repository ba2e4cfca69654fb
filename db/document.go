package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sigqms/doccontrol/models"
	"gorm.io/gorm"
)

// ======================================================================================
// Document records

/*
CreateDocumentRecord record a new controlled document

	@param ctx context.Context - execution context
	@param record models.DocumentRecord - the document to record. ID is assigned here.
	@returns the recorded document
*/
func (d *databaseImpl) CreateDocumentRecord(
	_ context.Context, record models.DocumentRecord,
) (models.DocumentRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	newEntry := DocumentRecordDBEntry{DocumentRecord: record}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.DocumentRecord{}, fmt.Errorf(
			"new document '%s' is not valid [%w]", record.Code, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.DocumentRecord{}, fmt.Errorf(
			"new document '%s' failed insert [%w]", record.Code, tmp.Error,
		)
	}

	return newEntry.DocumentRecord, nil
}

/*
GetDocumentRecord fetch a controlled document by ID

	@param ctx context.Context - execution context
	@param documentID string - the document record ID
	@returns the document
*/
func (d *databaseImpl) GetDocumentRecord(
	_ context.Context, documentID string,
) (models.DocumentRecord, error) {
	var entry DocumentRecordDBEntry
	if tmp := d.db.Where("id = ?", documentID).First(&entry); tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return models.DocumentRecord{}, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
		}
		return models.DocumentRecord{}, fmt.Errorf(
			"failed to fetch document %s [%w]", documentID, tmp.Error,
		)
	}

	return entry.DocumentRecord, nil
}

/*
ListDocumentRecords list controlled documents

	@param ctx context.Context - execution context
	@param filters DocumentRecordQueryFilter - entry listing filter
	@returns list of documents
*/
func (d *databaseImpl) ListDocumentRecords(
	_ context.Context, filters DocumentRecordQueryFilter,
) ([]models.DocumentRecord, error) {
	query := d.db.Model(&DocumentRecordDBEntry{})

	if filters.Process != nil {
		query = query.Where("process = ?", *filters.Process)
	}
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.Search != nil {
		pattern := "%" + *filters.Search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", pattern, pattern)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("code asc")

	var entries []DocumentRecordDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list documents [%w]", tmp.Error)
	}

	result := []models.DocumentRecord{}
	for _, entry := range entries {
		result = append(result, entry.DocumentRecord)
	}

	return result, nil
}

/*
UpdateDocumentRecord persist a modified controlled document

	@param ctx context.Context - execution context
	@param record models.DocumentRecord - the modified document
	@returns the persisted document
*/
func (d *databaseImpl) UpdateDocumentRecord(
	ctx context.Context, record models.DocumentRecord,
) (models.DocumentRecord, error) {
	stored, err := d.GetDocumentRecord(ctx, record.ID)
	if err != nil {
		return models.DocumentRecord{}, err
	}
	record.CreatedAt = stored.CreatedAt

	updated := DocumentRecordDBEntry{DocumentRecord: record}

	if err := d.validator.Struct(&updated); err != nil {
		return models.DocumentRecord{}, fmt.Errorf(
			"updated document %s is not valid [%w]", record.ID, err,
		)
	}

	if tmp := d.db.Save(&updated); tmp.Error != nil {
		return models.DocumentRecord{}, fmt.Errorf(
			"failed to update document %s [%w]", record.ID, tmp.Error,
		)
	}

	return updated.DocumentRecord, nil
}

/*
DeleteDocumentRecord delete a controlled document

	@param ctx context.Context - execution context
	@param documentID string - the document record ID
*/
func (d *databaseImpl) DeleteDocumentRecord(ctx context.Context, documentID string) error {
	entry, err := d.GetDocumentRecord(ctx, documentID)
	if err != nil {
		return err
	}

	if tmp := d.db.Delete(&DocumentRecordDBEntry{DocumentRecord: entry}); tmp.Error != nil {
		return fmt.Errorf("failed to delete document %s [%w]", documentID, tmp.Error)
	}

	return nil
}

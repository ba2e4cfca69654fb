package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sigqms/doccontrol/models"
	"gorm.io/gorm"
)

// ReservedNamePrefix name prefix marking a master list entry as a code
// reservation placeholder
const ReservedNamePrefix = "RESERVADO_"

// ======================================================================================
// Master list entries

/*
CreateRegistryEntry record a new master list entry

Fails with `ErrConflict` if an active entry already carries the same code.

	@param ctx context.Context - execution context
	@param entry models.RegistryEntry - the entry to record. ID is assigned here.
	@returns the recorded entry
*/
func (d *databaseImpl) CreateRegistryEntry(
	_ context.Context, entry models.RegistryEntry,
) (models.RegistryEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.DocumentStatusDraft
	}

	newEntry := RegistryEntryDBEntry{RegistryEntry: entry}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.RegistryEntry{}, fmt.Errorf(
			"new registry entry '%s' is not valid [%w]", entry.Code, err,
		)
	}

	var collisions int64
	if tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Where("code = ? AND active = ?", entry.Code, true).
		Count(&collisions); tmp.Error != nil {
		return models.RegistryEntry{}, fmt.Errorf(
			"code collision check for '%s' failed [%w]", entry.Code, tmp.Error,
		)
	}
	if collisions > 0 {
		return models.RegistryEntry{}, fmt.Errorf(
			"code '%s' already in use: %w", entry.Code, ErrConflict,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.RegistryEntry{}, fmt.Errorf(
			"new registry entry '%s' failed insert [%w]", entry.Code, tmp.Error,
		)
	}

	return newEntry.RegistryEntry, nil
}

/*
GetRegistryEntry fetch a master list entry by ID

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@returns the entry
*/
func (d *databaseImpl) GetRegistryEntry(
	_ context.Context, entryID string,
) (models.RegistryEntry, error) {
	var entry RegistryEntryDBEntry
	if tmp := d.db.Where("id = ?", entryID).First(&entry); tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return models.RegistryEntry{}, fmt.Errorf("registry entry %s: %w", entryID, ErrNotFound)
		}
		return models.RegistryEntry{}, fmt.Errorf(
			"failed to fetch registry entry %s [%w]", entryID, tmp.Error,
		)
	}

	return entry.RegistryEntry, nil
}

/*
GetRegistryEntryByCode fetch the active master list entry carrying a code

	@param ctx context.Context - execution context
	@param code string - the document code
	@returns the entry
*/
func (d *databaseImpl) GetRegistryEntryByCode(
	_ context.Context, code string,
) (models.RegistryEntry, error) {
	var entry RegistryEntryDBEntry
	if tmp := d.db.Where("code = ? AND active = ?", code, true).First(&entry); tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return models.RegistryEntry{}, fmt.Errorf("registry entry '%s': %w", code, ErrNotFound)
		}
		return models.RegistryEntry{}, fmt.Errorf(
			"failed to fetch registry entry '%s' [%w]", code, tmp.Error,
		)
	}

	return entry.RegistryEntry, nil
}

/*
ListRegistryEntries list master list entries

	@param ctx context.Context - execution context
	@param filters RegistryEntryQueryFilter - entry listing filter
	@returns list of entries
*/
func (d *databaseImpl) ListRegistryEntries(
	_ context.Context, filters RegistryEntryQueryFilter,
) ([]models.RegistryEntry, error) {
	query := d.db.Model(&RegistryEntryDBEntry{})

	if filters.Process != nil {
		query = query.Where("process = ?", *filters.Process)
	}
	if filters.DocType != nil {
		query = query.Where("doc_type = ?", *filters.DocType)
	}
	if len(filters.Status) > 0 {
		query = query.Where("status IN ?", filters.Status)
	}
	if filters.Responsible != nil {
		query = query.Where("responsible LIKE ?", "%"+*filters.Responsible+"%")
	}
	if filters.Search != nil {
		pattern := "%" + *filters.Search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", pattern, pattern)
	}
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("code asc")

	var entries []RegistryEntryDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list registry entries [%w]", tmp.Error)
	}

	result := []models.RegistryEntry{}
	for _, entry := range entries {
		result = append(result, entry.RegistryEntry)
	}

	return result, nil
}

/*
UpdateRegistryEntry persist a modified master list entry

	@param ctx context.Context - execution context
	@param entry models.RegistryEntry - the modified entry
	@returns the persisted entry
*/
func (d *databaseImpl) UpdateRegistryEntry(
	ctx context.Context, entry models.RegistryEntry,
) (models.RegistryEntry, error) {
	stored, err := d.GetRegistryEntry(ctx, entry.ID)
	if err != nil {
		return models.RegistryEntry{}, err
	}
	// The creation stamp survives caller-constructed entries
	entry.CreatedAt = stored.CreatedAt

	updated := RegistryEntryDBEntry{RegistryEntry: entry}

	if err := d.validator.Struct(&updated); err != nil {
		return models.RegistryEntry{}, fmt.Errorf(
			"updated registry entry %s is not valid [%w]", entry.ID, err,
		)
	}

	if tmp := d.db.Save(&updated); tmp.Error != nil {
		return models.RegistryEntry{}, fmt.Errorf(
			"failed to update registry entry %s [%w]", entry.ID, tmp.Error,
		)
	}

	return updated.RegistryEntry, nil
}

/*
SetRegistryEntryStatus change the lifecycle status of a master list entry

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param status models.DocumentStatusENUMType - the new status
	@param changeReason string - reason recorded with the change
*/
func (d *databaseImpl) SetRegistryEntryStatus(
	_ context.Context,
	entryID string,
	status models.DocumentStatusENUMType,
	changeReason string,
) error {
	updates := map[string]interface{}{
		"status":     status,
		"changed_at": time.Now().UTC(),
	}
	if changeReason != "" {
		updates["change_reason"] = changeReason
	}

	tmp := d.db.Model(&RegistryEntryDBEntry{}).Where("id = ?", entryID).Updates(updates)
	if tmp.Error != nil {
		return fmt.Errorf("failed to change status of registry entry %s [%w]", entryID, tmp.Error)
	}
	if tmp.RowsAffected == 0 {
		return fmt.Errorf("registry entry %s: %w", entryID, ErrNotFound)
	}

	return nil
}

/*
SetRegistryEntryActive flip the soft-delete flag of a master list entry

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param active bool - the new flag value
*/
func (d *databaseImpl) SetRegistryEntryActive(
	_ context.Context, entryID string, active bool,
) error {
	tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Where("id = ?", entryID).
		Update("active", active)
	if tmp.Error != nil {
		return fmt.Errorf("failed to flip active flag of registry entry %s [%w]", entryID, tmp.Error)
	}
	if tmp.RowsAffected == 0 {
		return fmt.Errorf("registry entry %s: %w", entryID, ErrNotFound)
	}

	return nil
}

/*
LinkRegistryEntryDocument associate a master list entry with a document record

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
	@param documentID string - the document record ID
*/
func (d *databaseImpl) LinkRegistryEntryDocument(
	_ context.Context, entryID string, documentID string,
) error {
	tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Where("id = ?", entryID).
		Update("document_id", documentID)
	if tmp.Error != nil {
		return fmt.Errorf(
			"failed to link registry entry %s with document %s [%w]", entryID, documentID, tmp.Error,
		)
	}
	if tmp.RowsAffected == 0 {
		return fmt.Errorf("registry entry %s: %w", entryID, ErrNotFound)
	}

	return nil
}

/*
UnlinkRegistryEntryDocument clear the document association of a master list entry

	@param ctx context.Context - execution context
	@param entryID string - the entry ID
*/
func (d *databaseImpl) UnlinkRegistryEntryDocument(_ context.Context, entryID string) error {
	tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Where("id = ?", entryID).
		Update("document_id", nil)
	if tmp.Error != nil {
		return fmt.Errorf("failed to unlink registry entry %s [%w]", entryID, tmp.Error)
	}
	if tmp.RowsAffected == 0 {
		return fmt.Errorf("registry entry %s: %w", entryID, ErrNotFound)
	}

	return nil
}

/*
CountRegistryEntries count active master list entries

	@param ctx context.Context - execution context
	@returns entry count
*/
func (d *databaseImpl) CountRegistryEntries(_ context.Context) (int64, error) {
	var count int64
	if tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Where("active = ?", true).
		Count(&count); tmp.Error != nil {
		return 0, fmt.Errorf("failed to count registry entries [%w]", tmp.Error)
	}
	return count, nil
}

/*
CountRegistryEntriesByStatus count active master list entries grouped by status

	@param ctx context.Context - execution context
	@returns per-status counts
*/
func (d *databaseImpl) CountRegistryEntriesByStatus(
	_ context.Context,
) ([]models.RegistryStatusCount, error) {
	var counts []models.RegistryStatusCount
	if tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Select("status, COUNT(*) AS count").
		Where("active = ?", true).
		Group("status").
		Find(&counts); tmp.Error != nil {
		return nil, fmt.Errorf("failed to count registry entries by status [%w]", tmp.Error)
	}
	return counts, nil
}

/*
CountRegistryEntriesByProcess count active master list entries grouped by process

	@param ctx context.Context - execution context
	@returns per-process counts
*/
func (d *databaseImpl) CountRegistryEntriesByProcess(
	_ context.Context,
) ([]models.RegistryProcessCount, error) {
	var counts []models.RegistryProcessCount
	if tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Select("process, COUNT(*) AS count").
		Where("active = ?", true).
		Group("process").
		Find(&counts); tmp.Error != nil {
		return nil, fmt.Errorf("failed to count registry entries by process [%w]", tmp.Error)
	}
	return counts, nil
}

/*
CountRegistryEntriesByDocType count active master list entries grouped by doc type

	@param ctx context.Context - execution context
	@returns per-type counts
*/
func (d *databaseImpl) CountRegistryEntriesByDocType(
	_ context.Context,
) ([]models.RegistryDocTypeCount, error) {
	var counts []models.RegistryDocTypeCount
	if tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Select("doc_type, COUNT(*) AS count").
		Where("active = ?", true).
		Group("doc_type").
		Find(&counts); tmp.Error != nil {
		return nil, fmt.Errorf("failed to count registry entries by doc type [%w]", tmp.Error)
	}
	return counts, nil
}

/*
ListTakenCodesWithPrefix list document codes considered occupied under a code prefix

A code counts as occupied when carried by an active entry, or by an inactive
reservation placeholder.

	@param ctx context.Context - execution context
	@param prefix string - code prefix, e.g. "RE-GS-"
	@returns occupied codes
*/
func (d *databaseImpl) ListTakenCodesWithPrefix(
	_ context.Context, prefix string,
) ([]string, error) {
	var codes []string
	if tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Where("code LIKE ?", prefix+"%").
		Where("active = ? OR name LIKE ?", true, ReservedNamePrefix+"%").
		Order("code asc").
		Pluck("code", &codes); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list codes with prefix '%s' [%w]", prefix, tmp.Error)
	}
	return codes, nil
}

/*
CodeTaken check whether one document code is occupied

	@param ctx context.Context - execution context
	@param code string - the document code
	@returns whether the code is occupied
*/
func (d *databaseImpl) CodeTaken(_ context.Context, code string) (bool, error) {
	var count int64
	if tmp := d.db.
		Model(&RegistryEntryDBEntry{}).
		Where("code = ?", code).
		Where("active = ? OR name LIKE ?", true, ReservedNamePrefix+"%").
		Count(&count); tmp.Error != nil {
		return false, fmt.Errorf("failed to check code '%s' [%w]", code, tmp.Error)
	}
	return count > 0, nil
}

/*
DeleteReservedRegistryEntries hard delete reservation placeholders created
before a cutoff

	@param ctx context.Context - execution context
	@param olderThan time.Time - the cutoff timestamp
	@returns number of placeholders removed
*/
func (d *databaseImpl) DeleteReservedRegistryEntries(
	_ context.Context, olderThan time.Time,
) (int64, error) {
	tmp := d.db.
		Where("name LIKE ? AND created_at < ?", ReservedNamePrefix+"%", olderThan).
		Delete(&RegistryEntryDBEntry{})
	if tmp.Error != nil {
		return 0, fmt.Errorf("failed to delete stale code reservations [%w]", tmp.Error)
	}
	return tmp.RowsAffected, nil
}

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
// Indicator formulas

/*
CreateFormula record a new indicator formula

	@param ctx context.Context - execution context
	@param formula models.Formula - the formula to record. ID is assigned here.
	@returns the recorded formula
*/
func (d *databaseImpl) CreateFormula(
	_ context.Context, formula models.Formula,
) (models.Formula, error) {
	if formula.ID == "" {
		formula.ID = uuid.NewString()
	}

	newEntry := FormulaDBEntry{Formula: formula}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.Formula{}, fmt.Errorf(
			"new formula '%s' is not valid [%w]", formula.Name, err,
		)
	}

	var collisions int64
	if tmp := d.db.
		Model(&FormulaDBEntry{}).
		Where("name = ?", formula.Name).
		Count(&collisions); tmp.Error != nil {
		return models.Formula{}, fmt.Errorf(
			"name collision check for formula '%s' failed [%w]", formula.Name, tmp.Error,
		)
	}
	if collisions > 0 {
		return models.Formula{}, fmt.Errorf(
			"formula name '%s' already in use: %w", formula.Name, ErrConflict,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.Formula{}, fmt.Errorf(
			"new formula '%s' failed insert [%w]", formula.Name, tmp.Error,
		)
	}

	return newEntry.Formula, nil
}

/*
GetFormula fetch an indicator formula by ID

	@param ctx context.Context - execution context
	@param formulaID string - the formula ID
	@returns the formula
*/
func (d *databaseImpl) GetFormula(
	_ context.Context, formulaID string,
) (models.Formula, error) {
	var entry FormulaDBEntry
	if tmp := d.db.Where("id = ?", formulaID).First(&entry); tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return models.Formula{}, fmt.Errorf("formula %s: %w", formulaID, ErrNotFound)
		}
		return models.Formula{}, fmt.Errorf("failed to fetch formula %s [%w]", formulaID, tmp.Error)
	}

	return entry.Formula, nil
}

/*
GetFormulaByName fetch an indicator formula by name

	@param ctx context.Context - execution context
	@param name string - the formula name
	@returns the formula
*/
func (d *databaseImpl) GetFormulaByName(
	_ context.Context, name string,
) (models.Formula, error) {
	var entry FormulaDBEntry
	if tmp := d.db.Where("name = ?", name).First(&entry); tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return models.Formula{}, fmt.Errorf("formula '%s': %w", name, ErrNotFound)
		}
		return models.Formula{}, fmt.Errorf("failed to fetch formula '%s' [%w]", name, tmp.Error)
	}

	return entry.Formula, nil
}

/*
ListFormulas list indicator formulas

	@param ctx context.Context - execution context
	@param filters CommonListEntryQueryFilter - entry listing filter
	@returns list of formulas
*/
func (d *databaseImpl) ListFormulas(
	_ context.Context, filters CommonListEntryQueryFilter,
) ([]models.Formula, error) {
	query := d.db.Model(&FormulaDBEntry{})

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("name asc")

	var entries []FormulaDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list formulas [%w]", tmp.Error)
	}

	result := []models.Formula{}
	for _, entry := range entries {
		result = append(result, entry.Formula)
	}

	return result, nil
}

/*
UpdateFormula persist a modified indicator formula

	@param ctx context.Context - execution context
	@param formula models.Formula - the modified formula
	@returns the persisted formula
*/
func (d *databaseImpl) UpdateFormula(
	ctx context.Context, formula models.Formula,
) (models.Formula, error) {
	stored, err := d.GetFormula(ctx, formula.ID)
	if err != nil {
		return models.Formula{}, err
	}
	formula.CreatedAt = stored.CreatedAt

	updated := FormulaDBEntry{Formula: formula}

	if err := d.validator.Struct(&updated); err != nil {
		return models.Formula{}, fmt.Errorf(
			"updated formula %s is not valid [%w]", formula.ID, err,
		)
	}

	if tmp := d.db.Save(&updated); tmp.Error != nil {
		return models.Formula{}, fmt.Errorf(
			"failed to update formula %s [%w]", formula.ID, tmp.Error,
		)
	}

	return updated.Formula, nil
}

/*
DeleteFormula delete an indicator formula

	@param ctx context.Context - execution context
	@param formulaID string - the formula ID
*/
func (d *databaseImpl) DeleteFormula(ctx context.Context, formulaID string) error {
	entry, err := d.GetFormula(ctx, formulaID)
	if err != nil {
		return err
	}

	if tmp := d.db.Delete(&FormulaDBEntry{Formula: entry}); tmp.Error != nil {
		return fmt.Errorf("failed to delete formula %s [%w]", formulaID, tmp.Error)
	}

	return nil
}

// ======================================================================================
// Scorecard indicators

/*
CreateScorecardIndicator record a new scorecard indicator

	@param ctx context.Context - execution context
	@param indicator models.ScorecardIndicator - the indicator to record. ID is
	    assigned here.
	@returns the recorded indicator
*/
func (d *databaseImpl) CreateScorecardIndicator(
	ctx context.Context, indicator models.ScorecardIndicator,
) (models.ScorecardIndicator, error) {
	if indicator.ID == "" {
		indicator.ID = uuid.NewString()
	}

	// A referenced formula must exist
	if indicator.FormulaID != nil {
		if _, err := d.GetFormula(ctx, *indicator.FormulaID); err != nil {
			return models.ScorecardIndicator{}, err
		}
	}

	newEntry := ScorecardIndicatorDBEntry{ScorecardIndicator: indicator}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.ScorecardIndicator{}, fmt.Errorf(
			"new indicator '%s' is not valid [%w]", indicator.Name, err,
		)
	}

	var collisions int64
	if tmp := d.db.
		Model(&ScorecardIndicatorDBEntry{}).
		Where("name = ?", indicator.Name).
		Count(&collisions); tmp.Error != nil {
		return models.ScorecardIndicator{}, fmt.Errorf(
			"name collision check for indicator '%s' failed [%w]", indicator.Name, tmp.Error,
		)
	}
	if collisions > 0 {
		return models.ScorecardIndicator{}, fmt.Errorf(
			"indicator name '%s' already in use: %w", indicator.Name, ErrConflict,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.ScorecardIndicator{}, fmt.Errorf(
			"new indicator '%s' failed insert [%w]", indicator.Name, tmp.Error,
		)
	}

	return newEntry.ScorecardIndicator, nil
}

/*
GetScorecardIndicator fetch a scorecard indicator by ID

	@param ctx context.Context - execution context
	@param indicatorID string - the indicator ID
	@returns the indicator
*/
func (d *databaseImpl) GetScorecardIndicator(
	_ context.Context, indicatorID string,
) (models.ScorecardIndicator, error) {
	var entry ScorecardIndicatorDBEntry
	if tmp := d.db.Where("id = ?", indicatorID).First(&entry); tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return models.ScorecardIndicator{}, fmt.Errorf(
				"indicator %s: %w", indicatorID, ErrNotFound,
			)
		}
		return models.ScorecardIndicator{}, fmt.Errorf(
			"failed to fetch indicator %s [%w]", indicatorID, tmp.Error,
		)
	}

	return entry.ScorecardIndicator, nil
}

/*
ListScorecardIndicators list scorecard indicators

	@param ctx context.Context - execution context
	@param filters ScorecardIndicatorQueryFilter - entry listing filter
	@returns list of indicators
*/
func (d *databaseImpl) ListScorecardIndicators(
	_ context.Context, filters ScorecardIndicatorQueryFilter,
) ([]models.ScorecardIndicator, error) {
	query := d.db.Model(&ScorecardIndicatorDBEntry{})

	if filters.Perspective != nil {
		query = query.Where("perspective = ?", *filters.Perspective)
	}
	if filters.IndicatorType != nil {
		query = query.Where("indicator_type = ?", *filters.IndicatorType)
	}
	if filters.InformationSource != nil {
		query = query.Where("information_source = ?", *filters.InformationSource)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("name asc")

	var entries []ScorecardIndicatorDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list indicators [%w]", tmp.Error)
	}

	result := []models.ScorecardIndicator{}
	for _, entry := range entries {
		result = append(result, entry.ScorecardIndicator)
	}

	return result, nil
}

/*
UpdateScorecardIndicator persist a modified scorecard indicator

	@param ctx context.Context - execution context
	@param indicator models.ScorecardIndicator - the modified indicator
	@returns the persisted indicator
*/
func (d *databaseImpl) UpdateScorecardIndicator(
	ctx context.Context, indicator models.ScorecardIndicator,
) (models.ScorecardIndicator, error) {
	stored, err := d.GetScorecardIndicator(ctx, indicator.ID)
	if err != nil {
		return models.ScorecardIndicator{}, err
	}
	indicator.CreatedAt = stored.CreatedAt

	if indicator.FormulaID != nil {
		if _, err := d.GetFormula(ctx, *indicator.FormulaID); err != nil {
			return models.ScorecardIndicator{}, err
		}
	}

	updated := ScorecardIndicatorDBEntry{ScorecardIndicator: indicator}

	if err := d.validator.Struct(&updated); err != nil {
		return models.ScorecardIndicator{}, fmt.Errorf(
			"updated indicator %s is not valid [%w]", indicator.ID, err,
		)
	}

	if tmp := d.db.Save(&updated); tmp.Error != nil {
		return models.ScorecardIndicator{}, fmt.Errorf(
			"failed to update indicator %s [%w]", indicator.ID, tmp.Error,
		)
	}

	return updated.ScorecardIndicator, nil
}

/*
DeleteScorecardIndicator delete a scorecard indicator

	@param ctx context.Context - execution context
	@param indicatorID string - the indicator ID
*/
func (d *databaseImpl) DeleteScorecardIndicator(
	ctx context.Context, indicatorID string,
) error {
	entry, err := d.GetScorecardIndicator(ctx, indicatorID)
	if err != nil {
		return err
	}

	if tmp := d.db.Delete(&ScorecardIndicatorDBEntry{ScorecardIndicator: entry}); tmp.Error != nil {
		return fmt.Errorf("failed to delete indicator %s [%w]", indicatorID, tmp.Error)
	}

	return nil
}

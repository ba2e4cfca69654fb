package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
)

// formulaIdentifierRegex the short variable identifiers inside an expression
var formulaIdentifierRegex = regexp.MustCompile(`[A-Z]+`)

// ScorecardService operations over indicator formulas and the balanced scorecard
type ScorecardService interface {
	/*
		CreateFormula record a new indicator formula

		Every identifier appearing in the expression must carry a variable
		definition. The human-readable rendering of the expression is derived
		from the variable names.

			@param ctx context.Context - execution context
			@param formula models.Formula - the formula to record
			@param variables []models.FormulaVariable - the variable definitions
			@param activeDBClient db.Database - existing database transaction
			@returns the recorded formula
	*/
	CreateFormula(
		ctx context.Context,
		formula models.Formula,
		variables []models.FormulaVariable,
		activeDBClient db.Database,
	) (models.Formula, error)

	/*
		GetFormula fetch a formula by ID

			@param ctx context.Context - execution context
			@param formulaID string - the formula ID
			@param activeDBClient db.Database - existing database transaction
			@returns the formula
	*/
	GetFormula(
		ctx context.Context, formulaID string, activeDBClient db.Database,
	) (models.Formula, error)

	/*
		GetFormulaByName fetch a formula by its unique name

			@param ctx context.Context - execution context
			@param name string - the formula name
			@param activeDBClient db.Database - existing database transaction
			@returns the formula
	*/
	GetFormulaByName(
		ctx context.Context, name string, activeDBClient db.Database,
	) (models.Formula, error)

	/*
		ListFormulas list indicator formulas

			@param ctx context.Context - execution context
			@param filters db.CommonListEntryQueryFilter - listing filter
			@param activeDBClient db.Database - existing database transaction
			@returns list of formulas
	*/
	ListFormulas(
		ctx context.Context, filters db.CommonListEntryQueryFilter, activeDBClient db.Database,
	) ([]models.Formula, error)

	/*
		UpdateFormula persist a modified formula

		The expression and variable definitions are re-checked against each other.

			@param ctx context.Context - execution context
			@param formula models.Formula - the modified formula
			@param activeDBClient db.Database - existing database transaction
			@returns the persisted formula
	*/
	UpdateFormula(
		ctx context.Context, formula models.Formula, activeDBClient db.Database,
	) (models.Formula, error)

	/*
		DeleteFormula remove a formula

		Indicators referencing the formula lose the reference.

			@param ctx context.Context - execution context
			@param formulaID string - the formula ID
			@param activeDBClient db.Database - existing database transaction
	*/
	DeleteFormula(ctx context.Context, formulaID string, activeDBClient db.Database) error

	/*
		AddFormulaVariable add a variable definition to a formula

			@param ctx context.Context - execution context
			@param formulaID string - the formula ID
			@param variable models.FormulaVariable - the variable to add
			@param activeDBClient db.Database - existing database transaction
			@returns the persisted formula
	*/
	AddFormulaVariable(
		ctx context.Context,
		formulaID string,
		variable models.FormulaVariable,
		activeDBClient db.Database,
	) (models.Formula, error)

	/*
		RemoveFormulaVariable remove a variable definition from a formula

		Fails when the expression still uses the variable's identifier.

			@param ctx context.Context - execution context
			@param formulaID string - the formula ID
			@param identifier string - the variable identifier to remove
			@param activeDBClient db.Database - existing database transaction
			@returns the persisted formula
	*/
	RemoveFormulaVariable(
		ctx context.Context, formulaID string, identifier string, activeDBClient db.Database,
	) (models.Formula, error)

	/*
		ValidateFormula re-check a stored formula's expression against its variables

			@param ctx context.Context - execution context
			@param formulaID string - the formula ID
			@param activeDBClient db.Database - existing database transaction
	*/
	ValidateFormula(ctx context.Context, formulaID string, activeDBClient db.Database) error

	/*
		CreateIndicator record a new scorecard indicator

			@param ctx context.Context - execution context
			@param indicator models.ScorecardIndicator - the indicator to record
			@param activeDBClient db.Database - existing database transaction
			@returns the recorded indicator
	*/
	CreateIndicator(
		ctx context.Context, indicator models.ScorecardIndicator, activeDBClient db.Database,
	) (models.ScorecardIndicator, error)

	/*
		GetIndicator fetch a scorecard indicator by ID

			@param ctx context.Context - execution context
			@param indicatorID string - the indicator ID
			@param activeDBClient db.Database - existing database transaction
			@returns the indicator
	*/
	GetIndicator(
		ctx context.Context, indicatorID string, activeDBClient db.Database,
	) (models.ScorecardIndicator, error)

	/*
		ListIndicators list scorecard indicators

			@param ctx context.Context - execution context
			@param filters db.ScorecardIndicatorQueryFilter - listing filter
			@param activeDBClient db.Database - existing database transaction
			@returns list of indicators
	*/
	ListIndicators(
		ctx context.Context, filters db.ScorecardIndicatorQueryFilter, activeDBClient db.Database,
	) ([]models.ScorecardIndicator, error)

	/*
		UpdateIndicator persist a modified scorecard indicator

			@param ctx context.Context - execution context
			@param indicator models.ScorecardIndicator - the modified indicator
			@param activeDBClient db.Database - existing database transaction
			@returns the persisted indicator
	*/
	UpdateIndicator(
		ctx context.Context, indicator models.ScorecardIndicator, activeDBClient db.Database,
	) (models.ScorecardIndicator, error)

	/*
		DeleteIndicator remove a scorecard indicator

			@param ctx context.Context - execution context
			@param indicatorID string - the indicator ID
			@param activeDBClient db.Database - existing database transaction
	*/
	DeleteIndicator(ctx context.Context, indicatorID string, activeDBClient db.Database) error
}

// scorecardService implements ScorecardService
type scorecardService struct {
	goutils.Component
	persistence db.Client
}

/*
NewScorecardService define new balanced scorecard service

	@param persistence db.Client - persistence layer client
	@returns service instance
*/
func NewScorecardService(persistence db.Client) (ScorecardService, error) {
	logTags := log.Fields{"package": "doccontrol", "module": "services", "component": "scorecard"}

	return &scorecardService{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
	}, nil
}

/*
buildReadableExpression derive the human-oriented rendering of an expression by
replacing every defined identifier with its variable name.

Longer identifiers substitute first so "RPA" is never mangled by "R".
*/
func buildReadableExpression(
	expression string, variables []models.FormulaVariable,
) (string, error) {
	defined := map[string]string{}
	for _, variable := range variables {
		defined[variable.Identifier] = variable.Name
	}

	for _, identifier := range formulaIdentifierRegex.FindAllString(expression, -1) {
		if _, ok := defined[identifier]; !ok {
			return "", fmt.Errorf(
				"%w: identifier '%s' has no variable definition", ErrInvalidArgument, identifier,
			)
		}
	}

	readable := expression
	for len(defined) > 0 {
		longest := ""
		for identifier := range defined {
			if len(identifier) > len(longest) {
				longest = identifier
			}
		}
		readable = strings.ReplaceAll(readable, longest, defined[longest])
		delete(defined, longest)
	}

	return readable, nil
}

// finalizeFormula check expression against variables and derive stored fields
func finalizeFormula(
	formula models.Formula, variables []models.FormulaVariable,
) (models.Formula, error) {
	readable, err := buildReadableExpression(formula.Expression, variables)
	if err != nil {
		return models.Formula{}, err
	}
	formula.ReadableExpression = readable

	encoded, err := models.EncodeVariables(variables)
	if err != nil {
		return models.Formula{}, err
	}
	formula.Variables = encoded

	return formula, nil
}

/*
CreateFormula record a new indicator formula

	@param ctx context.Context - execution context
	@param formula models.Formula - the formula to record
	@param variables []models.FormulaVariable - the variable definitions
	@param activeDBClient db.Database - existing database transaction
	@returns the recorded formula
*/
func (s *scorecardService) CreateFormula(
	ctx context.Context,
	formula models.Formula,
	variables []models.FormulaVariable,
	activeDBClient db.Database,
) (models.Formula, error) {
	formula, err := finalizeFormula(formula, variables)
	if err != nil {
		return models.Formula{}, err
	}

	var recorded models.Formula
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			recorded, err = dbClient.CreateFormula(dbCtx, formula)
			return err
		},
	); dbErr != nil {
		return models.Formula{}, fmt.Errorf(
			"failed to record formula '%s' [%w]", formula.Name, dbErr,
		)
	}

	log.WithFields(s.LogTags).WithField("formula", recorded.Name).Info("Recorded formula")

	return recorded, nil
}

/*
GetFormula fetch a formula by ID

	@param ctx context.Context - execution context
	@param formulaID string - the formula ID
	@param activeDBClient db.Database - existing database transaction
	@returns the formula
*/
func (s *scorecardService) GetFormula(
	ctx context.Context, formulaID string, activeDBClient db.Database,
) (models.Formula, error) {
	var formula models.Formula
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			formula, err = dbClient.GetFormula(dbCtx, formulaID)
			return err
		},
	); dbErr != nil {
		return models.Formula{}, dbErr
	}
	return formula, nil
}

/*
GetFormulaByName fetch a formula by its unique name

	@param ctx context.Context - execution context
	@param name string - the formula name
	@param activeDBClient db.Database - existing database transaction
	@returns the formula
*/
func (s *scorecardService) GetFormulaByName(
	ctx context.Context, name string, activeDBClient db.Database,
) (models.Formula, error) {
	var formula models.Formula
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			formula, err = dbClient.GetFormulaByName(dbCtx, name)
			return err
		},
	); dbErr != nil {
		return models.Formula{}, dbErr
	}
	return formula, nil
}

/*
ListFormulas list indicator formulas

	@param ctx context.Context - execution context
	@param filters db.CommonListEntryQueryFilter - listing filter
	@param activeDBClient db.Database - existing database transaction
	@returns list of formulas
*/
func (s *scorecardService) ListFormulas(
	ctx context.Context, filters db.CommonListEntryQueryFilter, activeDBClient db.Database,
) ([]models.Formula, error) {
	var formulas []models.Formula
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			formulas, err = dbClient.ListFormulas(dbCtx, filters)
			return err
		},
	); dbErr != nil {
		return nil, dbErr
	}
	return formulas, nil
}

/*
UpdateFormula persist a modified formula

	@param ctx context.Context - execution context
	@param formula models.Formula - the modified formula
	@param activeDBClient db.Database - existing database transaction
	@returns the persisted formula
*/
func (s *scorecardService) UpdateFormula(
	ctx context.Context, formula models.Formula, activeDBClient db.Database,
) (models.Formula, error) {
	variables, err := formula.ParseVariables()
	if err != nil {
		return models.Formula{}, err
	}
	formula, err = finalizeFormula(formula, variables)
	if err != nil {
		return models.Formula{}, err
	}

	var updated models.Formula
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			updated, err = dbClient.UpdateFormula(dbCtx, formula)
			return err
		},
	); dbErr != nil {
		return models.Formula{}, fmt.Errorf(
			"failed to update formula %s [%w]", formula.ID, dbErr,
		)
	}
	return updated, nil
}

/*
DeleteFormula remove a formula

	@param ctx context.Context - execution context
	@param formulaID string - the formula ID
	@param activeDBClient db.Database - existing database transaction
*/
func (s *scorecardService) DeleteFormula(
	ctx context.Context, formulaID string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.DeleteFormula(dbCtx, formulaID)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to delete formula %s [%w]", formulaID, dbErr)
	}
	return nil
}

/*
AddFormulaVariable add a variable definition to a formula

	@param ctx context.Context - execution context
	@param formulaID string - the formula ID
	@param variable models.FormulaVariable - the variable to add
	@param activeDBClient db.Database - existing database transaction
	@returns the persisted formula
*/
func (s *scorecardService) AddFormulaVariable(
	ctx context.Context,
	formulaID string,
	variable models.FormulaVariable,
	activeDBClient db.Database,
) (models.Formula, error) {
	var updated models.Formula
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			formula, err := dbClient.GetFormula(dbCtx, formulaID)
			if err != nil {
				return err
			}
			variables, err := formula.ParseVariables()
			if err != nil {
				return err
			}
			for _, existing := range variables {
				if existing.Identifier == variable.Identifier {
					return fmt.Errorf(
						"identifier '%s' is already defined: %w",
						variable.Identifier,
						db.ErrConflict,
					)
				}
			}
			variables = append(variables, variable)

			formula, err = finalizeFormula(formula, variables)
			if err != nil {
				return err
			}
			updated, err = dbClient.UpdateFormula(dbCtx, formula)
			return err
		},
	); dbErr != nil {
		return models.Formula{}, fmt.Errorf(
			"failed to extend formula %s [%w]", formulaID, dbErr,
		)
	}
	return updated, nil
}

/*
RemoveFormulaVariable remove a variable definition from a formula

	@param ctx context.Context - execution context
	@param formulaID string - the formula ID
	@param identifier string - the variable identifier to remove
	@param activeDBClient db.Database - existing database transaction
	@returns the persisted formula
*/
func (s *scorecardService) RemoveFormulaVariable(
	ctx context.Context, formulaID string, identifier string, activeDBClient db.Database,
) (models.Formula, error) {
	var updated models.Formula
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			formula, err := dbClient.GetFormula(dbCtx, formulaID)
			if err != nil {
				return err
			}
			variables, err := formula.ParseVariables()
			if err != nil {
				return err
			}

			remaining := []models.FormulaVariable{}
			found := false
			for _, existing := range variables {
				if existing.Identifier == identifier {
					found = true
					continue
				}
				remaining = append(remaining, existing)
			}
			if !found {
				return fmt.Errorf(
					"formula %s defines no identifier '%s': %w",
					formulaID,
					identifier,
					db.ErrNotFound,
				)
			}

			// Fails in finalize when the expression still uses the identifier
			formula, err = finalizeFormula(formula, remaining)
			if err != nil {
				return err
			}
			updated, err = dbClient.UpdateFormula(dbCtx, formula)
			return err
		},
	); dbErr != nil {
		return models.Formula{}, fmt.Errorf(
			"failed to shrink formula %s [%w]", formulaID, dbErr,
		)
	}
	return updated, nil
}

/*
ValidateFormula re-check a stored formula's expression against its variables

	@param ctx context.Context - execution context
	@param formulaID string - the formula ID
	@param activeDBClient db.Database - existing database transaction
*/
func (s *scorecardService) ValidateFormula(
	ctx context.Context, formulaID string, activeDBClient db.Database,
) error {
	formula, err := s.GetFormula(ctx, formulaID, activeDBClient)
	if err != nil {
		return err
	}
	variables, err := formula.ParseVariables()
	if err != nil {
		return err
	}
	if _, err := buildReadableExpression(formula.Expression, variables); err != nil {
		return err
	}
	return nil
}

/*
CreateIndicator record a new scorecard indicator

	@param ctx context.Context - execution context
	@param indicator models.ScorecardIndicator - the indicator to record
	@param activeDBClient db.Database - existing database transaction
	@returns the recorded indicator
*/
func (s *scorecardService) CreateIndicator(
	ctx context.Context, indicator models.ScorecardIndicator, activeDBClient db.Database,
) (models.ScorecardIndicator, error) {
	var recorded models.ScorecardIndicator
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			recorded, err = dbClient.CreateScorecardIndicator(dbCtx, indicator)
			return err
		},
	); dbErr != nil {
		return models.ScorecardIndicator{}, fmt.Errorf(
			"failed to record indicator '%s' [%w]", indicator.Name, dbErr,
		)
	}

	log.WithFields(s.LogTags).WithField("indicator", recorded.Name).Info("Recorded indicator")

	return recorded, nil
}

/*
GetIndicator fetch a scorecard indicator by ID

	@param ctx context.Context - execution context
	@param indicatorID string - the indicator ID
	@param activeDBClient db.Database - existing database transaction
	@returns the indicator
*/
func (s *scorecardService) GetIndicator(
	ctx context.Context, indicatorID string, activeDBClient db.Database,
) (models.ScorecardIndicator, error) {
	var indicator models.ScorecardIndicator
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			indicator, err = dbClient.GetScorecardIndicator(dbCtx, indicatorID)
			return err
		},
	); dbErr != nil {
		return models.ScorecardIndicator{}, dbErr
	}
	return indicator, nil
}

/*
ListIndicators list scorecard indicators

	@param ctx context.Context - execution context
	@param filters db.ScorecardIndicatorQueryFilter - listing filter
	@param activeDBClient db.Database - existing database transaction
	@returns list of indicators
*/
func (s *scorecardService) ListIndicators(
	ctx context.Context, filters db.ScorecardIndicatorQueryFilter, activeDBClient db.Database,
) ([]models.ScorecardIndicator, error) {
	var indicators []models.ScorecardIndicator
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			indicators, err = dbClient.ListScorecardIndicators(dbCtx, filters)
			return err
		},
	); dbErr != nil {
		return nil, dbErr
	}
	return indicators, nil
}

/*
UpdateIndicator persist a modified scorecard indicator

	@param ctx context.Context - execution context
	@param indicator models.ScorecardIndicator - the modified indicator
	@param activeDBClient db.Database - existing database transaction
	@returns the persisted indicator
*/
func (s *scorecardService) UpdateIndicator(
	ctx context.Context, indicator models.ScorecardIndicator, activeDBClient db.Database,
) (models.ScorecardIndicator, error) {
	var updated models.ScorecardIndicator
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			updated, err = dbClient.UpdateScorecardIndicator(dbCtx, indicator)
			return err
		},
	); dbErr != nil {
		return models.ScorecardIndicator{}, fmt.Errorf(
			"failed to update indicator %s [%w]", indicator.ID, dbErr,
		)
	}
	return updated, nil
}

/*
DeleteIndicator remove a scorecard indicator

	@param ctx context.Context - execution context
	@param indicatorID string - the indicator ID
	@param activeDBClient db.Database - existing database transaction
*/
func (s *scorecardService) DeleteIndicator(
	ctx context.Context, indicatorID string, activeDBClient db.Database,
) error {
	if dbErr := db.ActiveSessionWrapper(
		ctx, activeDBClient, s.persistence, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.DeleteScorecardIndicator(dbCtx, indicatorID)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to delete indicator %s [%w]", indicatorID, dbErr)
	}
	return nil
}

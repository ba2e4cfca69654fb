package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// FormulaVariable one named variable of an indicator formula
type FormulaVariable struct {
	// Name human-readable variable name
	Name string `json:"name" validate:"required"`
	// Identifier short identifier used inside the expression, e.g. "IT"
	Identifier string `json:"identifier" validate:"required"`
	// Description what the variable measures
	Description string `json:"description" validate:"required"`
	// Unit unit of measure
	Unit string `json:"unit,omitempty"`
}

// Formula a named indicator formula with its variable definitions
type Formula struct {
	// ID entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`

	// Name formula name, unique
	Name string `json:"name" gorm:"column:name;not null;unique" validate:"required"`

	// Description what the formula computes
	Description string `json:"description" gorm:"column:description;not null" validate:"required"`

	// Expression machine-oriented expression, e.g. "(IT - GT) / RPA"
	Expression string `json:"expression" gorm:"column:expression;not null" validate:"required"`
	// ReadableExpression human-oriented rendering of the expression
	ReadableExpression string `json:"readable_expression" gorm:"column:readable_expression;not null" validate:"required"`

	// Variables serialized []FormulaVariable
	Variables datatypes.JSON `json:"variables" gorm:"column:variables"`

	// ResultUnit unit of the computed result
	ResultUnit string `json:"result_unit,omitempty" gorm:"column:result_unit"`
	// Observations free-form notes
	Observations string `json:"observations,omitempty" gorm:"column:observations"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseVariables decode the serialized variable definitions
func (f Formula) ParseVariables() ([]FormulaVariable, error) {
	if len(f.Variables) == 0 {
		return nil, nil
	}
	var parsed []FormulaVariable
	if err := json.Unmarshal(f.Variables, &parsed); err != nil {
		return nil, fmt.Errorf("formula %s variables parse failed [%w]", f.ID, err)
	}
	return parsed, nil
}

// EncodeVariables serialize variable definitions for storage
func EncodeVariables(variables []FormulaVariable) (datatypes.JSON, error) {
	encoded, err := json.Marshal(&variables)
	if err != nil {
		return nil, fmt.Errorf("formula variables encode failed [%w]", err)
	}
	return datatypes.JSON(encoded), nil
}

// ScorecardIndicator one balanced-scorecard indicator
type ScorecardIndicator struct {
	// ID entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`

	// StrategicInitiative the initiative this indicator tracks
	StrategicInitiative string `json:"strategic_initiative" gorm:"column:strategic_initiative;not null" validate:"required"`
	// Objective the objective being measured
	Objective string `json:"objective" gorm:"column:objective;not null" validate:"required"`
	// Perspective scorecard perspective (financial, client, process, learning)
	Perspective string `json:"perspective" gorm:"column:perspective;not null;index" validate:"required"`
	// IndicatorType indicator classification
	IndicatorType string `json:"indicator_type" gorm:"column:indicator_type;not null;index" validate:"required"`

	// Name indicator name, unique
	Name string `json:"name" gorm:"column:name;not null;unique" validate:"required"`

	// MeasurementDescription how the indicator is measured
	MeasurementDescription string `json:"measurement_description" gorm:"column:measurement_description;not null" validate:"required"`
	// FormulaID the formula used to compute the indicator, if any
	FormulaID *string `json:"formula_id,omitempty" gorm:"column:formula_id;default:null"`

	// InformationSource process the measurement data comes from
	InformationSource string `json:"information_source" gorm:"column:information_source;not null;index" validate:"required"`

	// Responsible party responsible for the measurement
	Responsible string `json:"responsible" gorm:"column:responsible;not null" validate:"required"`

	// Frequency measurement frequency label
	Frequency string `json:"frequency" gorm:"column:frequency;not null" validate:"required"`

	// Interpretation how to read the measured value
	Interpretation string `json:"interpretation" gorm:"column:interpretation;not null" validate:"required"`

	// Target target value label
	Target string `json:"target" gorm:"column:target;not null" validate:"required"`

	// Audience who the measurement is reported to
	Audience string `json:"audience" gorm:"column:audience;not null" validate:"required"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

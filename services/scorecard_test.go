package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/apex/log"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/sigqms/doccontrol/services"
	"github.com/stretchr/testify/assert"
)

func sampleServiceFormula(name string) (models.Formula, []models.FormulaVariable) {
	formula := models.Formula{
		Name:        name,
		Description: "Margen sobre los ingresos totales",
		Expression:  "(IT - GT) / IT",
		ResultUnit:  "%",
	}
	variables := []models.FormulaVariable{
		{Name: "Ingresos totales", Identifier: "IT", Description: "Ingresos del periodo", Unit: "COP"},
		{Name: "Gastos totales", Identifier: "GT", Description: "Gastos del periodo", Unit: "COP"},
	}
	return formula, variables
}

func sampleServiceIndicator(name string) models.ScorecardIndicator {
	return models.ScorecardIndicator{
		StrategicInitiative:    "Sostenibilidad financiera",
		Objective:              "Mantener el margen operativo",
		Perspective:            "financiera",
		IndicatorType:          "resultado",
		Name:                   name,
		MeasurementDescription: "Margen mensual sobre ingresos",
		InformationSource:      "Gestión administrativa",
		Responsible:            "Director administrativo",
		Frequency:              "mensual",
		Interpretation:         "Mayor es mejor",
		Target:                 ">= 15%",
		Audience:               "Comité directivo",
	}
}

// TestScorecardServiceFormulas verifies formula recording and variable checks.
func TestScorecardServiceFormulas(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	client := prepareServicesTestDB(t)

	uut, err := services.NewScorecardService(client)
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – An expression with an undefined identifier is refused
	formula, variables := sampleServiceFormula("Margen operativo")
	_, err = uut.CreateFormula(utCtx, formula, variables[:1], nil)
	assert.NotNil(err)
	assert.True(errors.Is(err, services.ErrInvalidArgument))

	// 2 – With every identifier defined, the readable rendering is derived
	recorded, err := uut.CreateFormula(utCtx, formula, variables, nil)
	assert.Nil(err)
	assert.Equal("(Ingresos totales - Gastos totales) / Ingresos totales", recorded.ReadableExpression)

	parsed, err := recorded.ParseVariables()
	assert.Nil(err)
	assert.Len(parsed, 2)

	// 3 – Names are unique
	_, err = uut.CreateFormula(utCtx, formula, variables, nil)
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrConflict))

	byName, err := uut.GetFormulaByName(utCtx, "Margen operativo", nil)
	assert.Nil(err)
	assert.Equal(recorded.ID, byName.ID)

	// -------------------------------------------------------------------------
	// 4 – Adding a variable re-derives the rendering after expression changes
	extended, err := uut.AddFormulaVariable(utCtx, recorded.ID, models.FormulaVariable{
		Name:        "Rendimientos por ahorro",
		Identifier:  "RPA",
		Description: "Rendimientos financieros",
		Unit:        "COP",
	}, nil)
	assert.Nil(err)
	extended.Expression = "(IT - GT) / RPA"
	updated, err := uut.UpdateFormula(utCtx, extended, nil)
	assert.Nil(err)
	assert.Equal(
		"(Ingresos totales - Gastos totales) / Rendimientos por ahorro",
		updated.ReadableExpression,
	)

	// 5 – A duplicate identifier conflicts
	_, err = uut.AddFormulaVariable(utCtx, recorded.ID, models.FormulaVariable{
		Name:        "Otra variable",
		Identifier:  "RPA",
		Description: "duplicada",
	}, nil)
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrConflict))

	// 6 – A variable still used by the expression cannot be removed
	_, err = uut.RemoveFormulaVariable(utCtx, recorded.ID, "RPA", nil)
	assert.NotNil(err)
	assert.True(errors.Is(err, services.ErrInvalidArgument))
	_, err = uut.RemoveFormulaVariable(utCtx, recorded.ID, "XYZ", nil)
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))

	// -------------------------------------------------------------------------
	// 7 – A stored formula re-validates cleanly
	assert.Nil(uut.ValidateFormula(utCtx, recorded.ID, nil))
	_, err = uut.RemoveFormulaVariable(utCtx, recorded.ID, "IT", nil)
	assert.NotNil(err)
	assert.Nil(uut.ValidateFormula(utCtx, recorded.ID, nil))
}

// TestScorecardServiceIndicators verifies indicator CRUD and formula links.
func TestScorecardServiceIndicators(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	client := prepareServicesTestDB(t)

	uut, err := services.NewScorecardService(client)
	assert.Nil(err)

	formula, variables := sampleServiceFormula("Margen operativo")
	recordedFormula, err := uut.CreateFormula(utCtx, formula, variables, nil)
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – An indicator referencing a missing formula is refused
	indicator := sampleServiceIndicator("Margen mensual")
	missing := "does-not-exist"
	indicator.FormulaID = &missing
	_, err = uut.CreateIndicator(utCtx, indicator, nil)
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))

	// 2 – With a real formula, the indicator records
	indicator.FormulaID = &recordedFormula.ID
	recorded, err := uut.CreateIndicator(utCtx, indicator, nil)
	assert.Nil(err)
	assert.NotEmpty(recorded.ID)

	// 3 – Listing filters by perspective
	other := sampleServiceIndicator("Satisfacción de clientes")
	other.Perspective = "clientes"
	_, err = uut.CreateIndicator(utCtx, other, nil)
	assert.Nil(err)

	perspective := "financiera"
	indicators, err := uut.ListIndicators(
		utCtx, db.ScorecardIndicatorQueryFilter{Perspective: &perspective}, nil,
	)
	assert.Nil(err)
	assert.Len(indicators, 1)
	assert.Equal("Margen mensual", indicators[0].Name)

	// -------------------------------------------------------------------------
	// 4 – Update and delete round out the lifecycle
	recorded.Target = ">= 18%"
	updated, err := uut.UpdateIndicator(utCtx, recorded, nil)
	assert.Nil(err)
	assert.Equal(">= 18%", updated.Target)

	assert.Nil(uut.DeleteIndicator(utCtx, recorded.ID, nil))
	_, err = uut.GetIndicator(utCtx, recorded.ID, nil)
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))
}

package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func sampleFormula(name string) models.Formula {
	variables, _ := models.EncodeVariables([]models.FormulaVariable{
		{Name: "Ingresos totales", Identifier: "IT", Description: "Ingresos del periodo", Unit: "COP"},
		{Name: "Gastos totales", Identifier: "GT", Description: "Gastos del periodo", Unit: "COP"},
	})
	return models.Formula{
		Name:               name,
		Description:        "Margen operativo del periodo",
		Expression:         "(IT - GT) / IT",
		ReadableExpression: "(Ingresos totales - Gastos totales) / Ingresos totales",
		Variables:          variables,
		ResultUnit:         "%",
	}
}

func sampleIndicator(name string) models.ScorecardIndicator {
	return models.ScorecardIndicator{
		StrategicInitiative:    "Sostenibilidad financiera",
		Objective:              "Mantener el margen operativo",
		Perspective:            "financiera",
		IndicatorType:          "resultado",
		Name:                   name,
		MeasurementDescription: "Margen operativo mensual",
		InformationSource:      "administrativa",
		Responsible:            "Dirección administrativa",
		Frequency:              "mensual",
		Interpretation:         "Mayor es mejor",
		Target:                 ">= 15%",
		Audience:               "Comité directivo",
	}
}

// TestDBFormulaCRUD verifies the behavior of the indicator formula persistence
// operations.
func TestDBFormulaCRUD(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/doccontrol_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – Record a new formula
	var formula models.Formula
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		f, err := dbClient.CreateFormula(ctx, sampleFormula("Margen operativo"))
		if err != nil {
			return err
		}
		formula = f
		return nil
	})
	assert.Nil(err)
	assert.NotEmpty(formula.ID)

	// 2 – Get back the formula by ID and by name
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		byID, err := dbClient.GetFormula(ctx, formula.ID)
		if err != nil {
			return err
		}
		variables, err := byID.ParseVariables()
		if err != nil {
			return err
		}
		assert.Len(variables, 2)
		assert.Equal("IT", variables[0].Identifier)

		byName, err := dbClient.GetFormulaByName(ctx, "Margen operativo")
		if err != nil {
			return err
		}
		assert.Equal(formula.ID, byName.ID)
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 3 – Formula names are unique
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.CreateFormula(ctx, sampleFormula("Margen operativo"))
		return err
	})
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrConflict))

	// 4 – Update then delete the formula
	formula.ResultUnit = "ratio"
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		updated, err := dbClient.UpdateFormula(ctx, formula)
		if err != nil {
			return err
		}
		assert.Equal("ratio", updated.ResultUnit)
		return dbClient.DeleteFormula(ctx, formula.ID)
	})
	assert.Nil(err)
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.GetFormula(ctx, formula.ID)
		return err
	})
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))
}

// TestDBScorecardIndicators verifies the behavior of the scorecard indicator
// persistence operations, including the formula reference check.
func TestDBScorecardIndicators(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/doccontrol_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – An indicator referencing an unknown formula is rejected
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		seed := sampleIndicator("Margen operativo mensual")
		badRef := uuid.NewString()
		seed.FormulaID = &badRef
		_, err := dbClient.CreateScorecardIndicator(ctx, seed)
		return err
	})
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))

	// 2 – Record a formula, then an indicator referencing it
	var formula models.Formula
	var indicator models.ScorecardIndicator
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		f, err := dbClient.CreateFormula(ctx, sampleFormula("Margen operativo"))
		if err != nil {
			return err
		}
		formula = f
		seed := sampleIndicator("Margen operativo mensual")
		seed.FormulaID = &formula.ID
		i, err := dbClient.CreateScorecardIndicator(ctx, seed)
		if err != nil {
			return err
		}
		indicator = i
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 3 – Indicator names are unique
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.CreateScorecardIndicator(
			ctx, sampleIndicator("Margen operativo mensual"),
		)
		return err
	})
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrConflict))

	// 4 – List with a perspective filter
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		other := sampleIndicator("Satisfacción de clientes")
		other.Perspective = "clientes"
		other.InformationSource = "clientes"
		if _, err := dbClient.CreateScorecardIndicator(ctx, other); err != nil {
			return err
		}
		perspective := "financiera"
		indicators, err := dbClient.ListScorecardIndicators(
			ctx, db.ScorecardIndicatorQueryFilter{Perspective: &perspective},
		)
		if err != nil {
			return err
		}
		assert.Len(indicators, 1)
		assert.Equal(indicator.ID, indicators[0].ID)
		return nil
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 5 – Update then delete the indicator
	indicator.Target = ">= 18%"
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		updated, err := dbClient.UpdateScorecardIndicator(ctx, indicator)
		if err != nil {
			return err
		}
		assert.Equal(">= 18%", updated.Target)
		return dbClient.DeleteScorecardIndicator(ctx, indicator.ID)
	})
	assert.Nil(err)
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.GetScorecardIndicator(ctx, indicator.ID)
		return err
	})
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))
}

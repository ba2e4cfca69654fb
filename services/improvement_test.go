package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/sigqms/doccontrol/notify"
	"github.com/sigqms/doccontrol/objectstore"
	"github.com/sigqms/doccontrol/services"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func sampleServiceAction(consecutive string) models.ImprovementAction {
	return models.ImprovementAction{
		Consecutive:          consecutive,
		Date:                 time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		Process:              "Gestión de producción",
		Origin:               models.ActionOriginAudit,
		Finding:              "Registros incompletos en el turno nocturno",
		Class:                models.ActionClassCorrective,
		Causes:               "Formato desactualizado",
		ActionDescription:    "Actualizar el formato y capacitar al personal",
		ExpectedOutcomes:     "Registros completos en todos los turnos",
		Resources:            "Horas del coordinador",
		Responsible:          "Jefe de producción",
		ProposedDate:         time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		VerificationCriteria: "Revisión mensual de registros",
	}
}

// TestImprovementServiceActions verifies action recording with notification.
func TestImprovementServiceActions(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	client := prepareServicesTestDB(t)
	store := objectstore.NewMemoryStore()
	sink := notify.NewRecordingSink()

	uut, err := services.NewImprovementService(client, store, sink)
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – Record an action, the assignment notice fires
	recorded, err := uut.Create(utCtx, sampleServiceAction("AM-001"), nil)
	assert.Nil(err)
	assert.NotEmpty(recorded.ID)

	notices := sink.Notices()
	assert.Len(notices, 1)
	assert.Equal("action-assigned", notices[0].Event)
	assert.Equal("AM-001", notices[0].Action.Consecutive)

	// 2 – Update records the verification outcome
	recorded.VerificationFinding = "Acción ejecutada"
	recorded.ClosedYes = "X"
	updated, err := uut.Update(utCtx, recorded, nil)
	assert.Nil(err)
	assert.Equal("X", updated.ClosedYes)

	read, err := uut.Get(utCtx, recorded.ID, nil)
	assert.Nil(err)
	assert.Equal("Acción ejecutada", read.VerificationFinding)

	// -------------------------------------------------------------------------
	// 3 – Listing filters by origin
	_, err = uut.Create(utCtx, func() models.ImprovementAction {
		action := sampleServiceAction("AM-002")
		action.Origin = models.ActionOriginComplaint
		return action
	}(), nil)
	assert.Nil(err)

	origin := models.ActionOriginAudit
	actions, err := uut.List(utCtx, db.ImprovementActionQueryFilter{Origin: &origin}, nil)
	assert.Nil(err)
	assert.Len(actions, 1)
	assert.Equal("AM-001", actions[0].Consecutive)
}

// TestImprovementServiceExport verifies template storage and log rendering.
func TestImprovementServiceExport(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	client := prepareServicesTestDB(t)
	store := objectstore.NewMemoryStore()

	uut, err := services.NewImprovementService(client, store, nil)
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – Exporting without a stored template fails
	_, _, err = uut.ExportLog(utCtx, db.ImprovementActionQueryFilter{})
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))

	// 2 – Store a template workbook
	tpl := excelize.NewFile()
	_, err = tpl.NewSheet("v3")
	assert.Nil(err)
	templateBytes, err := tpl.WriteToBuffer()
	assert.Nil(err)
	assert.Nil(tpl.Close())

	template, err := uut.StoreTemplate(utCtx, services.AttachmentUpload{
		Name:        "registro_acciones.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Size:        int64(templateBytes.Len()),
		Payload:     bytes.NewReader(templateBytes.Bytes()),
	}, nil)
	assert.Nil(err)
	assert.True(template.Active)
	assert.Equal(".xlsx", template.Extension)

	// -------------------------------------------------------------------------
	// 3 – The export renders recorded actions onto the template
	_, err = uut.Create(utCtx, sampleServiceAction("AM-001"), nil)
	assert.Nil(err)

	rendered, filename, err := uut.ExportLog(utCtx, db.ImprovementActionQueryFilter{})
	assert.Nil(err)
	assert.Regexp(`^registro_acciones_\d{4}-\d{2}-\d{2}\.xlsx$`, filename)

	f, err := excelize.OpenReader(bytes.NewReader(rendered.Bytes()))
	assert.Nil(err)
	value, err := f.GetCellValue("v3", "A9")
	assert.Nil(err)
	assert.Equal("AM-001", value)
	value, err = f.GetCellValue("v3", "D9")
	assert.Nil(err)
	assert.Equal("X", value)
	assert.Nil(f.Close())
}

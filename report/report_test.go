package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/sigqms/doccontrol/models"
	"github.com/sigqms/doccontrol/report"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

// TestBuildMasterList verifies the master list export layout.
func TestBuildMasterList(t *testing.T) {
	assert := assert.New(t)

	// -------------------------------------------------------------------------
	// 1 – An empty export still carries the header row
	rendered, err := report.BuildMasterList(nil)
	assert.Nil(err)

	f, err := excelize.OpenReader(bytes.NewReader(rendered.Bytes()))
	assert.Nil(err)
	rows, err := f.GetRows(report.MasterListSheetName)
	assert.Nil(err)
	assert.Len(rows, 1)
	assert.Equal("No.", rows[0][0])
	assert.Equal("Código", rows[0][1])
	assert.Equal("Fecha creación", rows[0][6])
	assert.Equal("Vigencia", rows[0][15])
	assert.Len(rows[0], 17)
	assert.Nil(f.Close())

	// -------------------------------------------------------------------------
	// 2 – Entries render one row each, in order
	entries := []models.RegistryEntry{
		{
			Code:        "RE-GS-01",
			Name:        "Registro de inspección",
			Process:     models.ProcessQualitySafety,
			DocType:     models.DocumentTypeRecord,
			Version:     "2",
			Responsible: "Coordinador de Calidad",
			Retention:   models.RetentionPeriod{Management: 2, CentralArchive: 3, Total: 5},
			Disposition: models.FinalDisposition{Choice: models.DispositionKeep},
			Status:      models.DocumentStatusApproved,
			Validity:    "2 años",
			CreatedAt:   time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			Code:        "MN-DP-01",
			Name:        "Manual de calidad",
			Process:     models.ProcessStrategicPlanning,
			DocType:     models.DocumentTypeManual,
			Version:     "4",
			Responsible: "Dirección",
			Status:      models.DocumentStatusInReview,
		},
	}
	rendered, err = report.BuildMasterList(entries)
	assert.Nil(err)

	f, err = excelize.OpenReader(bytes.NewReader(rendered.Bytes()))
	assert.Nil(err)
	rows, err = f.GetRows(report.MasterListSheetName)
	assert.Nil(err)
	assert.Len(rows, 3)
	assert.Equal("1", rows[1][0])
	assert.Equal("RE-GS-01", rows[1][1])
	assert.Equal("Registro de inspección", rows[1][2])
	assert.Equal("calidad-sst", rows[1][3])
	assert.Equal("registro", rows[1][4])
	assert.Equal("2026-01-20", rows[1][6])
	assert.Equal("5", rows[1][12])
	assert.Equal("conservar", rows[1][13])
	assert.Equal("aprobado", rows[1][14])
	assert.Equal("2 años", rows[1][15])
	assert.Equal("MN-DP-01", rows[2][1])
	assert.Equal("en_revision", rows[2][14])

	// 3 – The header carries the bold filled style
	styleID, err := f.GetCellStyle(report.MasterListSheetName, "A1")
	assert.Nil(err)
	assert.NotEqual(0, styleID)
	assert.Nil(f.Close())
}

// TestRenderImprovementLog verifies template based rendering of the
// improvement action log.
func TestRenderImprovementLog(t *testing.T) {
	assert := assert.New(t)

	// Build a minimal stand-in for the stored template workbook
	tpl := excelize.NewFile()
	_, err := tpl.NewSheet("v3")
	assert.Nil(err)
	assert.Nil(tpl.SetCellValue("v3", "A8", "Consecutivo"))
	templateBytes, err := tpl.WriteToBuffer()
	assert.Nil(err)
	assert.Nil(tpl.Close())

	// -------------------------------------------------------------------------
	// 1 – A workbook without the layout sheet is refused
	bad := excelize.NewFile()
	badBytes, err := bad.WriteToBuffer()
	assert.Nil(err)
	assert.Nil(bad.Close())
	_, err = report.RenderImprovementLog(badBytes.Bytes(), nil)
	assert.NotNil(err)

	// -------------------------------------------------------------------------
	// 2 – Actions render from the first data row with one-hot markers
	actions := []models.ImprovementAction{
		{
			Consecutive:          "AM-001",
			Date:                 time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
			Process:              "Gestión de producción",
			Origin:               models.ActionOriginAudit,
			Finding:              "Registros incompletos",
			Class:                models.ActionClassCorrective,
			Causes:               "Formato desactualizado",
			ActionDescription:    "Actualizar el formato",
			ExpectedOutcomes:     "Registros completos",
			Resources:            "Horas del coordinador",
			Responsible:          "Jefe de producción",
			ProposedDate:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			VerificationCriteria: "Revisión mensual",
			ClosedYes:            "X",
		},
		{
			Consecutive: "AM-002",
			Origin:      models.ActionOriginComplaint,
			Class:       models.ActionClassCorrection,
		},
	}
	rendered, err := report.RenderImprovementLog(templateBytes.Bytes(), actions)
	assert.Nil(err)

	f, err := excelize.OpenReader(bytes.NewReader(rendered.Bytes()))
	assert.Nil(err)

	value, err := f.GetCellValue("v3", "A9")
	assert.Nil(err)
	assert.Equal("AM-001", value)
	value, err = f.GetCellValue("v3", "B9")
	assert.Nil(err)
	assert.Equal("2026-02-10", value)

	// Audit origin marks column D, corrective class marks column L
	value, err = f.GetCellValue("v3", "D9")
	assert.Nil(err)
	assert.Equal("X", value)
	value, err = f.GetCellValue("v3", "E9")
	assert.Nil(err)
	assert.Equal("", value)
	value, err = f.GetCellValue("v3", "L9")
	assert.Nil(err)
	assert.Equal("X", value)

	value, err = f.GetCellValue("v3", "Z9")
	assert.Nil(err)
	assert.Equal("X", value)

	// Second action lands on the next row with its own markers
	value, err = f.GetCellValue("v3", "A10")
	assert.Nil(err)
	assert.Equal("AM-002", value)
	value, err = f.GetCellValue("v3", "E10")
	assert.Nil(err)
	assert.Equal("X", value)
	value, err = f.GetCellValue("v3", "K10")
	assert.Nil(err)
	assert.Equal("X", value)

	// Zero dates stay empty
	value, err = f.GetCellValue("v3", "B10")
	assert.Nil(err)
	assert.Equal("", value)

	// The pre-existing template content is untouched
	value, err = f.GetCellValue("v3", "A8")
	assert.Nil(err)
	assert.Equal("Consecutivo", value)

	assert.Nil(f.Close())
}

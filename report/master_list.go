// Package report renders spreadsheet exports of the document control data.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/sigqms/doccontrol/models"
	"github.com/xuri/excelize/v2"
)

// MasterListSheetName sheet holding the master list export
const MasterListSheetName = "Listado Maestro"

// masterListHeaderFill header fill color of the master list export
const masterListHeaderFill = "9D9101"

// masterListHeader the fixed column layout of the master list export
var masterListHeader = []string{
	"No.",
	"Código",
	"Nombre del documento",
	"Proceso",
	"Tipo de documento",
	"Versión",
	"Fecha creación",
	"Responsable",
	"Ubicación física",
	"Ubicación digital",
	"Retención gestión (años)",
	"Retención archivo central (años)",
	"Retención total (años)",
	"Disposición final",
	"Estado",
	"Vigencia",
	"Observaciones",
}

/*
BuildMasterList render the master document list as a spreadsheet

	@param entries []models.RegistryEntry - the entries to export, in output order
	@returns the rendered workbook
*/
func BuildMasterList(entries []models.RegistryEntry) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", MasterListSheetName); err != nil {
		return nil, fmt.Errorf("failed to name export sheet [%w]", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{masterListHeaderFill},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to define header style [%w]", err)
	}

	for col, title := range masterListHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to address header cell [%w]", err)
		}
		if err := f.SetCellValue(MasterListSheetName, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header cell [%w]", err)
		}
	}

	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(masterListHeader), 1)
	if err := f.SetCellStyle(MasterListSheetName, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header row [%w]", err)
	}

	for idx, entry := range entries {
		row := idx + 2
		values := []interface{}{
			idx + 1,
			entry.Code,
			entry.Name,
			string(entry.Process),
			string(entry.DocType),
			entry.Version,
			formatReportDate(entry.CreatedAt),
			entry.Responsible,
			entry.PhysicalLocation,
			entry.DigitalLocation,
			entry.Retention.Management,
			entry.Retention.CentralArchive,
			entry.Retention.Total,
			string(entry.Disposition.Choice),
			string(entry.Status),
			entry.Validity,
			entry.Observations,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to address data cell [%w]", err)
			}
			if err := f.SetCellValue(MasterListSheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write data cell [%w]", err)
			}
		}
	}

	rendered, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render master list export [%w]", err)
	}

	return rendered, nil
}

// formatReportDate render a date cell, leaving zero dates empty
func formatReportDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

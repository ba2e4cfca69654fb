package report

import (
	"bytes"
	"fmt"

	"github.com/sigqms/doccontrol/models"
	"github.com/xuri/excelize/v2"
)

// ImprovementLogSheetName sheet of the template workbook receiving the log rows
const ImprovementLogSheetName = "v3"

// improvementLogFirstRow first data row of the template layout
const improvementLogFirstRow = 9

// Origin marker columns of the template layout, in column order D through I
var originColumns = map[models.ActionOriginENUMType]string{
	models.ActionOriginAudit:         "D",
	models.ActionOriginComplaint:     "E",
	models.ActionOriginSatisfaction:  "F",
	models.ActionOriginSelfControl:   "G",
	models.ActionOriginRiskAnalysis:  "H",
	models.ActionOriginNonConforming: "I",
}

// Action class marker columns of the template layout, K through M
var classColumns = map[models.ActionClassENUMType]string{
	models.ActionClassCorrection: "K",
	models.ActionClassCorrective: "L",
	models.ActionClassPreventive: "M",
}

/*
RenderImprovementLog fill the improvement action log template with action rows

The template workbook must carry the expected layout sheet. Rows are written
from the layout's first data row down, one action per row, with the origin and
action class rendered as "X" markers in their dedicated columns.

	@param template []byte - the template workbook
	@param actions []models.ImprovementAction - the actions to render, in output order
	@returns the rendered workbook
*/
func RenderImprovementLog(
	template []byte, actions []models.ImprovementAction,
) (*bytes.Buffer, error) {
	f, err := excelize.OpenReader(bytes.NewReader(template))
	if err != nil {
		return nil, fmt.Errorf("failed to open report template [%w]", err)
	}
	defer func() { _ = f.Close() }()

	if idx, err := f.GetSheetIndex(ImprovementLogSheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf(
			"report template has no '%s' sheet", ImprovementLogSheetName,
		)
	}

	for idx, action := range actions {
		row := improvementLogFirstRow + idx

		cells := map[string]interface{}{
			"A":  action.Consecutive,
			"B":  formatReportDate(action.Date),
			"C":  action.Process,
			"J":  action.Finding,
			"N":  action.Causes,
			"O":  action.ActionDescription,
			"P":  action.ExpectedOutcomes,
			"Q":  action.Resources,
			"R":  action.Responsible,
			"S":  formatReportDate(action.ProposedDate),
			"T":  action.VerificationCriteria,
			"U":  action.VerificationFinding,
			"X":  formatReportDate(action.VerificationDate),
			"Y":  formatReportDate(action.EffectivenessDate),
			"Z":  action.ClosedYes,
			"AA": action.ClosedNo,
			"AB": action.Auditor,
			"AC": action.Observations,
		}
		if column, ok := originColumns[action.Origin]; ok {
			cells[column] = "X"
		}
		if column, ok := classColumns[action.Class]; ok {
			cells[column] = "X"
		}

		for column, value := range cells {
			cell := fmt.Sprintf("%s%d", column, row)
			if err := f.SetCellValue(ImprovementLogSheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write log cell %s [%w]", cell, err)
			}
		}
	}

	rendered, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render improvement log [%w]", err)
	}

	return rendered, nil
}

// Package export renders roster periods as XLSX workbooks.
package export

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// Sheet names
const (
	SheetRoster      = "Roster"
	SheetAssignments = "Assignments"
	SheetCompliance  = "Compliance"
	SheetUnresolved  = "Unresolved"
)

const headerDateLayout = "Mon 02 Jan"

// WriteRoster writes the roster workbook to w. names maps member IDs to display names.
func WriteRoster(w io.Writer, roster *model.RosterPeriod, names map[string]string) error {
	f, err := RosterWorkbook(roster, names)
	if err != nil {
		return err
	}

	// File must remain open during Write
	if _, err := f.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	return nil
}

// RosterBytes renders the roster workbook into memory
func RosterBytes(roster *model.RosterPeriod, names map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteRoster(&buf, roster, names); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RosterWorkbook builds the workbook: a member by date grid, the flat assignment list,
// the compliance issues and, when coverage was not met, the unresolved slots.
// The caller owns the returned file and must close it.
func RosterWorkbook(roster *model.RosterPeriod, names map[string]string) (*excelize.File, error) {
	f := excelize.NewFile()
	wb := &workbook{file: f}

	wb.rosterGrid(roster, names)
	wb.assignments(roster, names)
	wb.compliance(roster, names)
	if len(roster.UnresolvedSlots) > 0 {
		wb.unresolved(roster)
	}

	if wb.err == nil {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			wb.err = fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}
	if wb.err == nil {
		index, err := f.GetSheetIndex(SheetRoster)
		if err != nil {
			wb.err = fmt.Errorf("failed to find roster sheet: %w", err)
		} else {
			f.SetActiveSheet(index)
		}
	}

	if wb.err != nil {
		f.Close()
		return nil, wb.err
	}
	return f, nil
}

// workbook keeps the first error so sheet builders can write without checking every cell
type workbook struct {
	file        *excelize.File
	headerStyle int
	err         error
}

func (wb *workbook) newSheet(name string, headers []string, widths []float64) {
	if wb.err != nil {
		return
	}
	if _, err := wb.file.NewSheet(name); err != nil {
		wb.err = fmt.Errorf("failed to create sheet %s: %w", name, err)
		return
	}

	if wb.headerStyle == 0 {
		style, err := wb.file.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
			Border: []excelize.Border{
				{Type: "bottom", Color: "000000", Style: 1},
			},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			wb.err = fmt.Errorf("failed to create header style: %w", err)
			return
		}
		wb.headerStyle = style
	}

	for col, header := range headers {
		wb.set(name, col+1, 1, header)
	}
	if wb.err != nil {
		return
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		wb.err = err
		return
	}
	if err := wb.file.SetCellStyle(name, "A1", last, wb.headerStyle); err != nil {
		wb.err = fmt.Errorf("failed to set header style: %w", err)
		return
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			wb.err = err
			return
		}
		if err := wb.file.SetColWidth(name, col, col, width); err != nil {
			wb.err = fmt.Errorf("failed to set column width: %w", err)
			return
		}
	}

	if err := wb.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		wb.err = fmt.Errorf("failed to freeze panes: %w", err)
	}
}

func (wb *workbook) set(sheet string, col, row int, value interface{}) {
	if wb.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		wb.err = err
		return
	}
	if err := wb.file.SetCellValue(sheet, cell, value); err != nil {
		wb.err = fmt.Errorf("failed to set cell %s!%s: %w", sheet, cell, err)
	}
}

func (wb *workbook) rosterGrid(roster *model.RosterPeriod, names map[string]string) {
	dates := roster.Dates()
	headers := []string{"Member", "Name"}
	widths := []float64{12, 22}
	for _, d := range dates {
		headers = append(headers, d.Format(headerDateLayout))
		widths = append(widths, 11)
	}
	headers = append(headers, "Shifts", "Hours")
	wb.newSheet(SheetRoster, headers, widths)

	type cellKey struct {
		member string
		date   string
	}
	cells := make(map[cellKey]string)
	shifts := make(map[string]int)
	hours := make(map[string]float64)
	for _, a := range roster.Assignments {
		key := cellKey{a.MemberID, a.Date.Format(model.DateLayout)}
		if cells[key] != "" {
			cells[key] += "/"
		}
		cells[key] += string(a.Type)
		shifts[a.MemberID]++
		hours[a.MemberID] += a.Hours
	}

	memberIDs := make([]string, 0, len(shifts))
	for id := range shifts {
		memberIDs = append(memberIDs, id)
	}
	sort.Strings(memberIDs)

	for i, id := range memberIDs {
		row := i + 2
		wb.set(SheetRoster, 1, row, id)
		wb.set(SheetRoster, 2, row, names[id])
		for j, d := range dates {
			if v := cells[cellKey{id, d.Format(model.DateLayout)}]; v != "" {
				wb.set(SheetRoster, j+3, row, v)
			}
		}
		wb.set(SheetRoster, len(dates)+3, row, shifts[id])
		wb.set(SheetRoster, len(dates)+4, row, hours[id])
	}
}

func (wb *workbook) assignments(roster *model.RosterPeriod, names map[string]string) {
	wb.newSheet(SheetAssignments, []string{"Date", "Shift", "Member", "Name", "Hours"}, []float64{12, 12, 12, 22, 8})

	for i, a := range roster.Assignments {
		row := i + 2
		wb.set(SheetAssignments, 1, row, a.Date.Format(model.DateLayout))
		wb.set(SheetAssignments, 2, row, string(a.Type))
		wb.set(SheetAssignments, 3, row, a.MemberID)
		wb.set(SheetAssignments, 4, row, names[a.MemberID])
		wb.set(SheetAssignments, 5, row, a.Hours)
	}
}

func (wb *workbook) compliance(roster *model.RosterPeriod, names map[string]string) {
	wb.newSheet(SheetCompliance, []string{"Severity", "Member", "Name", "Date", "Issue"}, []float64{12, 12, 22, 12, 60})

	row := 2
	write := func(severity string, issues []model.ComplianceIssue) {
		for _, issue := range issues {
			wb.set(SheetCompliance, 1, row, severity)
			wb.set(SheetCompliance, 2, row, issue.MemberID)
			wb.set(SheetCompliance, 3, row, names[issue.MemberID])
			wb.set(SheetCompliance, 4, row, issue.Date.Format(model.DateLayout))
			wb.set(SheetCompliance, 5, row, issue.Message)
			row++
		}
	}
	write(string(model.StatusViolation), roster.ComplianceStatus.Violations)
	write(string(model.StatusWarning), roster.ComplianceStatus.Warnings)
}

func (wb *workbook) unresolved(roster *model.RosterPeriod) {
	wb.newSheet(SheetUnresolved, []string{"Date", "Shift", "Required", "Assigned"}, []float64{12, 12, 10, 10})

	for i, u := range roster.UnresolvedSlots {
		row := i + 2
		wb.set(SheetUnresolved, 1, row, u.Date.Format(model.DateLayout))
		wb.set(SheetUnresolved, 2, row, string(u.Type))
		wb.set(SheetUnresolved, 3, row, u.Required)
		wb.set(SheetUnresolved, 4, row, u.Assigned)
	}
}

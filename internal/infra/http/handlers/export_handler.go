package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/realty-crm/internal/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LeadExporter interface {
	Export(ctx context.Context, p entity.Principal, params map[string]string) ([]entity.Lead, error)
}

// ExportHandler writes the caller's visible leads as an xlsx workbook.
type ExportHandler struct {
	leads LeadExporter
	Now   func() time.Time
}

func NewExportHandler(leads LeadExporter) *ExportHandler {
	return &ExportHandler{leads: leads, Now: time.Now}
}

var leadColumns = []any{
	"ID", "Name", "Email", "Phone", "Status", "Source", "Budget",
	"Property Type", "Assigned Agent", "Notes", "Created At", "Last Contact",
}

func (h *ExportHandler) Leads(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	leads, err := h.leads.Export(r.Context(), p, q.Params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	f, err := leadWorkbook(leads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()

	name := fmt.Sprintf("leads-%s.xlsx", h.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		writeFailed(r, err)
	}
}

const leadSheet = "Leads"

func leadWorkbook(leads []entity.Lead) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(leadSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(leadSheet, "A1", &leadColumns); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(leadSheet, "A1", "L1", bold)
	}
	_ = f.SetColWidth(leadSheet, "A", "L", 18)

	for i, l := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []any{
			entity.FormatID(l.ID), l.Name, l.Email, l.Phone, l.Status, l.Source, l.Budget,
			l.PropertyType, l.AssignedAgent, l.Notes, l.CreatedAt.UTC().Format(time.RFC3339), "",
		}
		if l.LastContact != nil {
			row[11] = l.LastContact.UTC().Format(time.RFC3339)
		}
		if err := f.SetSheetRow(leadSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

const exportSheet = "Contactos"

var exportHeaders = []string{
	"Nombre", "Teléfono", "Email", "Dirección", "Lugar",
	"Tipo de contacto", "Tipo (otro)", "Detalle", "Detalle (otro)",
	"Calificación promedio", "Creado",
}

var exportWidths = []float64{28, 18, 30, 30, 20, 18, 20, 22, 20, 12, 20}

type ExportService interface {
	// ContactsXLSX renders every contact matching params into one workbook.
	ContactsXLSX(ctx context.Context, params ListContactsParams) ([]byte, error)
}

type exportService struct {
	log      *logger.Logger
	contacts ContactService
}

func NewExportService(log *logger.Logger, contacts ContactService) ExportService {
	return &exportService{
		log:      log.With("service", "ExportService"),
		contacts: contacts,
	}
}

func (s *exportService) ContactsXLSX(ctx context.Context, params ListContactsParams) ([]byte, error) {
	items, err := s.contacts.All(ctx, params)
	if err != nil {
		return nil, err
	}
	out, err := renderContactsWorkbook(items)
	if err != nil {
		return nil, fmt.Errorf("render contacts workbook: %w", err)
	}
	s.log.Debug("Contacts exported", "rows", len(items))
	return out, nil
}

func renderContactsWorkbook(items []*types.Contact) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#1E88E5"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheet, col, col, exportWidths[i]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r, c := range items {
		row := []any{
			c.Nombre,
			c.Telefono,
			deref(c.Email),
			deref(c.Direccion),
			deref(c.Lugar),
			derefEnum(c.TipoContacto),
			deref(c.TipoContactoOtro),
			derefEnum(c.DetalleTipo),
			deref(c.DetalleTipoOtro),
			"",
			c.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		if c.AverageRating != nil {
			row[9] = *c.AverageRating
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefEnum[T ~string](v *T) string {
	if v == nil {
		return ""
	}
	return string(*v)
}

package export

import (
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/approval"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

const approvalSheetName = "Persetujuan"

// ApprovalSheet renders the sign-off workbook of an approved submission:
// submitter details, line items, totals, the signatories and a QR code
// encoding the display ID.
func (e *Exporter) ApprovalSheet(sub *entity.Submission, signatories []approval.Signatory, generatedAt time.Time) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := approvalSheetName
	if err := wb.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	title, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	_ = wb.SetColWidth(sheet, "A", "A", 18)
	_ = wb.SetColWidth(sheet, "B", "B", 36)
	_ = wb.SetColWidth(sheet, "C", "F", 16)

	e.setCell(wb, sheet, "A1", "LEMBAR PERSETUJUAN "+sub.DocType.Label())
	_ = wb.SetCellStyle(sheet, "A1", "A1", title)

	details := [][2]interface{}{
		{"ID Dokumen", sub.DisplayID},
		{"Nama", sub.User.Nama},
		{"Unit", sub.User.Unit},
		{"Kategori", sub.Category},
		{"Tanggal Pengajuan", sub.SubmittedAt.In(e.loc).Format("02-01-2006")},
		{"Bank", sub.User.BankName},
		{"No. Rekening", sub.User.AccountNumber},
		{"Status", statusText(sub)},
	}
	row := 3
	for _, d := range details {
		e.setCell(wb, sheet, cell("A", row), d[0])
		e.setCell(wb, sheet, cell("B", row), d[1])
		row++
	}
	_ = wb.SetCellStyle(sheet, "A3", cell("A", row-1), bold)

	png, err := qrcode.Encode(sub.DisplayID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	if err := wb.AddPictureFromBytes(sheet, "E1", &excelize.Picture{
		Extension: ".png",
		File:      png,
		Format:    &excelize.GraphicOptions{ScaleX: 0.5, ScaleY: 0.5, AltText: sub.DisplayID},
	}); err != nil {
		return nil, fmt.Errorf("failed to place qr code: %w", err)
	}

	row++
	itemHeader := row
	for i, h := range []string{"No", "Deskripsi", "Tanggal", "Biaya", "Jumlah", "Jumlah Biaya"} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		e.setCell(wb, sheet, cell(col, row), h)
	}
	_ = wb.SetCellStyle(sheet, cell("A", itemHeader), cell("F", itemHeader), bold)
	row++

	for i, item := range sub.LineItems {
		e.setCell(wb, sheet, cell("A", row), i+1)
		e.setCell(wb, sheet, cell("B", row), item.Description)
		e.setCell(wb, sheet, cell("C", row), item.Tanggal)
		e.setCell(wb, sheet, cell("D", row), item.Biaya)
		e.setCell(wb, sheet, cell("E", row), item.Jumlah)
		e.setCell(wb, sheet, cell("F", row), item.JumlahBiaya)
		row++
	}

	totals := [][2]interface{}{{"Total Biaya", sub.TotalBiaya}}
	if sub.DocType == entity.DocLPJ {
		totals = append(totals,
			[2]interface{}{"Jumlah BS", sub.JumlahBS},
			[2]interface{}{"Sisa Lebih", sub.SisaLebih},
			[2]interface{}{"Sisa Kurang", sub.SisaKurang},
		)
	}
	for _, t := range totals {
		e.setCell(wb, sheet, cell("E", row), t[0])
		e.setCell(wb, sheet, cell("F", row), t[1])
		_ = wb.SetCellStyle(sheet, cell("E", row), cell("E", row), bold)
		row++
	}

	row++
	e.setCell(wb, sheet, cell("A", row), "Disetujui oleh")
	_ = wb.SetCellStyle(sheet, cell("A", row), cell("A", row), bold)
	row++
	for i, sig := range signatories {
		col, _ := excelize.ColumnNumberToName(2 + i*2)
		e.setCell(wb, sheet, cell(col, row), string(sig.Slot))
		e.setCell(wb, sheet, cell(col, row+1), sig.Name)
		e.setCell(wb, sheet, cell(col, row+2), sig.SignedAt.In(e.loc).Format("02-01-2006 15:04"))
	}
	row += 4

	e.setCell(wb, sheet, cell("A", row), "Dicetak "+generatedAt.In(e.loc).Format("02-01-2006 15:04"))

	e.logger.Info("Approval sheet built",
		zap.String("display_id", sub.DisplayID),
		zap.Int("signatories", len(signatories)))

	return writeBytes(wb)
}

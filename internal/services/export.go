package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/models"
)

// ReportSource produces the report to export.
type ReportSource interface {
	Report(ctx context.Context, kind models.ReportKind) (models.FineReport, error)
}

// ExportFile is a rendered report ready to be sent as an attachment.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

type fineExportRow struct {
	FineID          int32  `csv:"fine_id"`
	LoanID          int32  `csv:"loan_id"`
	MemberCode      string `csv:"member_code"`
	Username        string `csv:"username"`
	BookTitle       string `csv:"book_title"`
	Amount          string `csv:"amount"`
	CollectedAmount string `csv:"collected_amount"`
	CashInHand      string `csv:"cash_in_hand"`
	Discount        string `csv:"discount"`
	RemainingFines  string `csv:"remaining_fines"`
	Collected       bool   `csv:"collected"`
	UpdatedAt       string `csv:"updated_at"`
}

var fineExportHeaders = []string{
	"fine_id", "loan_id", "member_code", "username", "book_title", "amount",
	"collected_amount", "cash_in_hand", "discount", "remaining_fines", "collected", "updated_at",
}

// FineExportService renders fine reports as CSV or Excel
type FineExportService struct {
	reports ReportSource
	clock   func() time.Time
}

func NewFineExportService(reports ReportSource) *FineExportService {
	return &FineExportService{reports: reports, clock: time.Now}
}

func (s *FineExportService) Export(ctx context.Context, kind models.ReportKind, format models.ExportFormat) (*ExportFile, error) {
	if !kind.Valid() {
		return nil, apperrors.ErrUnsupportedExport
	}
	switch format {
	case models.ExportCSV, models.ExportXLSX:
	default:
		return nil, apperrors.ErrUnsupportedExport
	}

	report, err := s.reports.Report(ctx, kind)
	if err != nil {
		return nil, err
	}
	rows := toExportRows(report.Rows)
	name := fmt.Sprintf("fines_%s_%s.%s", kind, s.clock().Format("20060102_150405"), format)

	if format == models.ExportCSV {
		content, err := renderCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{FileName: name, ContentType: "text/csv", Content: content}, nil
	}

	content, err := renderXLSX(rows, report)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		FileName:    name,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

func toExportRows(rows []models.FineReportRow) []*fineExportRow {
	out := make([]*fineExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, &fineExportRow{
			FineID:          r.FineID,
			LoanID:          r.LoanID,
			MemberCode:      r.MemberCode,
			Username:        r.Username,
			BookTitle:       r.BookTitle,
			Amount:          r.Amount.StringFixed(2),
			CollectedAmount: r.CollectedAmount.StringFixed(2),
			CashInHand:      r.CashInHand.StringFixed(2),
			Discount:        r.Discount.StringFixed(2),
			RemainingFines:  r.RemainingFines.StringFixed(2),
			Collected:       r.Collected,
			UpdatedAt:       r.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out
}

func renderCSV(rows []*fineExportRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		return nil, fmt.Errorf("failed to generate CSV content: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(rows []*fineExportRow, report models.FineReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for i, header := range fineExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, r := range rows {
		values := []interface{}{
			r.FineID, r.LoanID, r.MemberCode, r.Username, r.BookTitle, r.Amount,
			r.CollectedAmount, r.CashInHand, r.Discount, r.RemainingFines, r.Collected, r.UpdatedAt,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	totalRow := len(rows) + 3
	labelCell, _ := excelize.CoordinatesToCellName(1, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(2, totalRow)
	f.SetCellValue(sheet, labelCell, "total")
	f.SetCellValue(sheet, totalCell, report.Total.StringFixed(2))

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel to buffer: %w", err)
	}
	return buffer.Bytes(), nil
}

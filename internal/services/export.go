package services

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/adrijusxx/truckpay/internal/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// BatchExportService renders a salary batch as a spreadsheet for the
// reporting/export consumers: one row per member settlement.
type BatchExportService struct {
	DB *gorm.DB
}

func NewBatchExportService(db *gorm.DB) *BatchExportService { return &BatchExportService{DB: db} }

var exportHeaders = []string{
	"Settlement #", "Driver", "Period Start", "Period End",
	"Gross Pay", "Deductions", "Additions", "Net Pay", "Status",
}

// ExportXLSX builds the workbook for one batch. Totals come from the stored
// line items, not recomputation, so the sheet matches what was settled.
func (s *BatchExportService) ExportXLSX(batchID uint) ([]byte, error) {
	var batch models.SalaryBatch
	err := s.DB.Preload("Settlements.Items").First(&batch, batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: salary batch %d", ErrNotFound, batchID)
	}
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Settlements"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, st := range batch.Settlements {
		var driver models.Driver
		if err := s.DB.First(&driver, st.DriverID).Error; err != nil {
			return nil, err
		}
		deductions := 0.0
		additions := 0.0
		for _, item := range st.Items {
			if item.Category == models.ItemCategoryAddition {
				additions += item.Amount.Neg().InexactFloat64()
			} else {
				deductions += item.Amount.InexactFloat64()
			}
		}
		values := []any{
			st.SettlementNumber,
			fmt.Sprintf("%s %s (%s)", driver.FirstName, driver.LastName, driver.DriverNumber),
			st.PeriodStart.Format("2006-01-02"),
			st.PeriodEnd.Format("2006-01-02"),
			st.GrossPay.InexactFloat64(),
			deductions,
			additions,
			st.NetPay.InexactFloat64(),
			st.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

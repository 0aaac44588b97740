package payroll

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"hrcore/internal/domain/auth"
)

// GeneratePayslipPDF renders one employee's entry of an approved or locked
// batch and returns the file path.
func (s *Service) GeneratePayslipPDF(ctx context.Context, actor auth.Actor, batchID, employeeID string) (string, error) {
	if !actor.Can(auth.CapPayrollRead) {
		return "", ErrForbidden
	}
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return "", err
	}
	if batch.Status != BatchStatusApproved && batch.Status != BatchStatusLocked {
		return "", ErrBatchNotReady
	}
	data, err := s.store.PayslipData(ctx, batchID, employeeID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.payslipDir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(s.payslipDir, fmt.Sprintf("%s-%s.pdf", batchID, employeeID))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", data.EmployeeName))
	pdf.Ln(7)
	if data.Department != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Department: %s", data.Department))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Month: %s", data.Month))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Base salary: %s", FormatAmount(data.BaseSalary)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Allowances: %s", FormatAmount(data.Allowances)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deductions: %s", FormatAmount(data.Deductions)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Tax: %s", FormatAmount(data.Tax)))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %s", FormatAmount(data.Gross)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %s", FormatAmount(data.Net)))

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}

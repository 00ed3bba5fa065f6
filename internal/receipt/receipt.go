package receipt

import (
	"fmt"
	"os"
	"path/filepath"

	"sahayak-agent/internal/identity"
	"sahayak-agent/internal/models"

	"github.com/jung-kurt/gofpdf/v2"
)

// Writer renders proof-of-delivery PDFs under the agent's data
// directory so the enumerator can show or print one on the spot, with
// or without connectivity.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// WriteDeliveryReceipt renders the receipt for a confirmed record and
// returns the path of the written file. The beneficiary token is masked
// on the document.
func (w *Writer) WriteDeliveryReceipt(rec models.DeliveryRecord) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Proof of Delivery", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Receipt: %s", rec.ID), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Verification details
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Verification Details", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Beneficiary ID: %s", identity.Mask(rec.BeneficiaryToken)), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Asset: %s", rec.AssetToken), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("OTP verified: %s", rec.OTPVerifiedAt.Format("02-Jan-2006 03:04 PM")), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Confirmed: %s", rec.ConfirmedAt.Format("02-Jan-2006 03:04 PM")), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Location
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Location", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Latitude: %.6f", rec.GeoFix.Lat), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Longitude: %.6f", rec.GeoFix.Lng), "RB", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFillColor(200, 255, 200)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, "DELIVERY VERIFIED", "1", 1, "C", true, 0, "")

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("receipt: create dir: %w", err)
	}
	path := filepath.Join(w.Dir, fmt.Sprintf("delivery_%s.pdf", rec.ID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("receipt: write %s: %w", path, err)
	}
	return path, nil
}

package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// TXF record codes for Form 8949 capital gains.
const (
	txfShortTerm = "N321"
	txfLongTerm  = "N323"
)

// WriteTXF writes disposals in TXF version 042, the tax-exchange
// format TurboTax imports. One TD record per disposal; dates are
// MM/DD/YYYY and amounts plain dollar figures. Unverified disposals
// carry an empty acquisition date so the gap shows up in review.
func WriteTXF(w io.Writer, disposals []types.Disposal, exportedAt time.Time) error {
	if _, err := fmt.Fprintf(w, "V042\nACryptoTaxes\nD%s\n^\n", exportedAt.Format("01/02/2006")); err != nil {
		return fmt.Errorf("write txf header: %w", err)
	}

	for _, d := range disposals {
		code := txfShortTerm
		if d.LongTerm {
			code = txfLongTerm
		}
		acquired := ""
		if !d.AcquiredAt.IsZero() {
			acquired = d.AcquiredAt.Format("01/02/2006")
		}

		_, err := fmt.Fprintf(w, "TD\n%s\nC1\nL1\nP%s %s\nD%s\nD%s\n$%s\n$%s\n^\n",
			code,
			d.Amount.String(), d.Asset,
			acquired,
			d.SaleTime.Format("01/02/2006"),
			d.CostBasisUSD.StringFixed(2),
			d.ProceedsUSD.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("write txf record: %w", err)
		}
	}

	return nil
}

// ExportTXF writes the TXF file at path.
func ExportTXF(path string, disposals []types.Disposal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create txf file: %w", err)
	}
	defer f.Close()

	if err := WriteTXF(f, disposals, time.Now()); err != nil {
		return err
	}
	return f.Close()
}

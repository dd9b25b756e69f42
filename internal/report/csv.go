package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

var csvHeader = []string{
	"description", "date_acquired", "date_sold",
	"proceeds_usd", "cost_basis_usd", "gain_usd", "term", "unverified",
}

// WriteCSV writes disposals as Form 8949 style rows.
func WriteCSV(w io.Writer, disposals []types.Disposal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, d := range disposals {
		term := "short"
		if d.LongTerm {
			term = "long"
		}
		acquired := ""
		if !d.AcquiredAt.IsZero() {
			acquired = d.AcquiredAt.Format("2006-01-02")
		}
		unverified := ""
		if d.Unverified {
			unverified = "yes"
		}

		row := []string{
			fmt.Sprintf("%s %s", d.Amount.String(), d.Asset),
			acquired,
			d.SaleTime.Format("2006-01-02"),
			d.ProceedsUSD.StringFixed(2),
			d.CostBasisUSD.StringFixed(2),
			d.GainUSD.StringFixed(2),
			term,
			unverified,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the CSV file at path.
func ExportCSV(path string, disposals []types.Disposal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, disposals); err != nil {
		return err
	}
	return f.Close()
}

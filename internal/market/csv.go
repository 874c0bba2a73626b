package market

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// WriteLedgerCSV writes the area ledger to path.
func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeLedgerCSV(f, ledger)
}

// EncodeLedgerCSV writes the area ledger as CSV to w.
func EncodeLedgerCSV(w io.Writer, ledger []LedgerRow) error {
	cw := csv.NewWriter(w)
	header := []string{
		"area",
		"year",
		"day",
		"hour",
		"hour_of_year",
		"price",
		"supply_mw",
		"demand_mw",
		"marginal_bid",
		"accepted_blocks",
		"imbalance_mw",
		"imbalanced",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			r.Area,
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Day),
			strconv.Itoa(r.Hour),
			strconv.Itoa(r.HourOfYear),
			fmtFloat(r.Price),
			fmtFloat(r.Supply),
			fmtFloat(r.Demand),
			r.MarginalBid,
			strconv.Itoa(r.AcceptedBlocks),
			fmtFloat(r.Imbalance),
			strconv.FormatBool(r.Imbalanced),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUnitsCSV writes the per-unit dispatch to path.
func WriteUnitsCSV(path string, rows []UnitRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"area", "year", "day", "hour", "unit", "kind", "action", "power_mw", "price", "pnl"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			r.Area,
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Day),
			strconv.Itoa(r.Hour),
			r.Unit,
			r.Kind,
			string(r.Action),
			fmtFloat(r.MW),
			fmtFloat(r.Price),
			fmtFloat(r.PNL),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown --format %q: want table or json", format)
	}
}

func runForecast(c *cli.Context) error {
	now, err := referenceTime(c.String("now"))
	if err != nil {
		return err
	}

	svc, closer, err := openService(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	var results []domain.ForecastResult
	if part := c.String("part"); part != "" {
		result, err := svc.Forecast(c.Context, part, now)
		if err != nil {
			return err
		}
		results = []domain.ForecastResult{*result}
	} else if results, err = svc.Forecasts(c.Context, now); err != nil {
		return err
	}

	return render(c.App.Writer, c.String("format"), results, func(w io.Writer) {
		writeForecasts(w, results)
	})
}

func runHealth(c *cli.Context) error {
	now, err := referenceTime(c.String("now"))
	if err != nil {
		return err
	}

	svc, closer, err := openService(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	var rows []domain.InventoryHealth
	if c.Bool("alerts") {
		rows, err = svc.ReorderAlerts(c.Context, now)
	} else {
		rows, err = svc.Health(c.Context, now)
	}
	if err != nil {
		return err
	}

	return render(c.App.Writer, c.String("format"), rows, func(w io.Writer) {
		writeHealth(w, rows)
	})
}

func runSuppliers(c *cli.Context) error {
	now, err := referenceTime(c.String("now"))
	if err != nil {
		return err
	}

	svc, closer, err := openService(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	var cards []domain.SupplierScorecard
	if raw := c.String("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid --id %q: %w", raw, err)
		}
		card, err := svc.SupplierScorecard(c.Context, id, now)
		if err != nil {
			return err
		}
		cards = []domain.SupplierScorecard{*card}
	} else if cards, err = svc.SupplierScorecards(c.Context, now); err != nil {
		return err
	}

	return render(c.App.Writer, c.String("format"), cards, func(w io.Writer) {
		writeScorecards(w, cards)
	})
}

// render writes v as indented JSON, or calls table with an aligned writer.
func render(w io.Writer, format string, v any, table func(w io.Writer)) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func writeForecasts(w io.Writer, results []domain.ForecastResult) {
	fmt.Fprintln(w, "PART\tNAME\tON HAND\tMIN\tAVG\tTREND\tNEXT\tSAFETY\tLEAD\tROP\tEOQ")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%+.2f (%s)\t%d\t%d\t%d\t%d\t%d\n",
			r.Item.PartNumber, r.Item.Name, r.Item.Quantity, r.Item.MinQuantity,
			r.MovingAverage, r.Trend, r.TrendDirection, r.NextPeriodUsage,
			r.SafetyStock, r.LeadTimeDays, r.ReorderPoint, r.OptimalOrderQuantity)
	}
}

func writeHealth(w io.Writer, rows []domain.InventoryHealth) {
	fmt.Fprintln(w, "PART\tON HAND\tMIN\tDAILY\tTURNOVER\tDAYS TO REORDER\tREORDER")
	for _, h := range rows {
		reorder := "no"
		if h.ShouldReorder {
			reorder = "YES"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%.1f\t%.1f\t%s\n",
			h.Item.PartNumber, h.Item.Quantity, h.Item.MinQuantity,
			h.DailyUsage, h.TurnoverRate, h.DaysUntilReorder, reorder)
	}
}

func writeScorecards(w io.Writer, cards []domain.SupplierScorecard) {
	fmt.Fprintln(w, "SUPPLIER\tGRADE\tSCORE\tORDERS\tON TIME %\tQUALITY %\tLEAD DAYS\tRESPONSE H\tAVG ORDER\tITEMS")
	for _, s := range cards {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f\t%.1f\t%.1f\t%.1f\t%s\t%d\n",
			s.Supplier.Name, s.Grade, s.Score, s.TotalOrders,
			s.DeliveryRatePct, s.QualityRatePct, s.AverageLeadTimeDays,
			s.AverageResponseTimeHours, s.AverageOrderValue.StringFixed(2), s.ActiveItems)
	}
}

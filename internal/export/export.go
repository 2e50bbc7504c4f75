// Package export writes metric and scenario tables as CSV or Parquet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"capital-risk/internal/model"

	"github.com/parquet-go/parquet-go"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatParquet:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported export format %q: use csv or parquet", s)
}

// Row is a flat record that can be written as CSV.
type Row interface {
	MetricRow | ScenarioRow
	record() []string
}

// MetricRow is one metric of one ILD plot.
type MetricRow struct {
	ILDID        int64   `parquet:"ild_id,snappy"`
	MetricID     int64   `parquet:"metric_id,snappy"`
	Distribution string  `parquet:"distribution,snappy"`
	Percentile   int32   `parquet:"percentile,snappy"`
	RWAX         float64 `parquet:"rwa_x,snappy"`
	AIC          float64 `parquet:"aic,snappy"`
	Lambda       float64 `parquet:"lambda,snappy"`
	RWAX202412   float64 `parquet:"rwa_x_202412,snappy"`
	RWAX202506   float64 `parquet:"rwa_x_202506,snappy"`
	ChangePct    float64 `parquet:"change_pct,snappy"`
}

var metricHeader = []string{
	"ild_id", "metric_id", "distribution", "percentile", "rwa_x", "aic", "lambda",
	"rwa_x_202412", "rwa_x_202506", "change_pct",
}

func (r MetricRow) record() []string {
	return []string{
		strconv.FormatInt(r.ILDID, 10),
		strconv.FormatInt(r.MetricID, 10),
		r.Distribution,
		strconv.Itoa(int(r.Percentile)),
		fmtFloat(r.RWAX),
		fmtFloat(r.AIC),
		fmtFloat(r.Lambda),
		fmtFloat(r.RWAX202412),
		fmtFloat(r.RWAX202506),
		fmtFloat(r.ChangePct),
	}
}

// ScenarioRow is one distribution fit of one scenario.
type ScenarioRow struct {
	ScenarioID   int64   `parquet:"scenario_id,snappy"`
	Title        string  `parquet:"title,snappy"`
	Category     string  `parquet:"category,snappy"`
	Distribution string  `parquet:"distribution,snappy"`
	Param1       float64 `parquet:"param_1,snappy"`
	Param2       float64 `parquet:"param_2,snappy"`
	FVal202412   float64 `parquet:"fval_202412,snappy"`
	FVal202506   float64 `parquet:"fval_202506,snappy"`
	RWAX202412   float64 `parquet:"rwa_x_202412,snappy"`
	RWAX202506   float64 `parquet:"rwa_x_202506,snappy"`
}

var scenarioHeader = []string{
	"scenario_id", "title", "category", "distribution", "param_1", "param_2",
	"fval_202412", "fval_202506", "rwa_x_202412", "rwa_x_202506",
}

func (r ScenarioRow) record() []string {
	return []string{
		strconv.FormatInt(r.ScenarioID, 10),
		r.Title,
		r.Category,
		r.Distribution,
		fmtFloat(r.Param1),
		fmtFloat(r.Param2),
		fmtFloat(r.FVal202412),
		fmtFloat(r.FVal202506),
		fmtFloat(r.RWAX202412),
		fmtFloat(r.RWAX202506),
	}
}

func MetricRows(ildID int, metrics []model.Metric) []MetricRow {
	out := make([]MetricRow, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, MetricRow{
			ILDID:        int64(ildID),
			MetricID:     int64(m.ID),
			Distribution: m.Distribution,
			Percentile:   int32(m.Percentile),
			RWAX:         m.RWAX,
			AIC:          m.AIC,
			Lambda:       m.Lambda,
			RWAX202412:   m.Periods[model.Period202412].RWAX,
			RWAX202506:   m.Periods[model.Period202506].RWAX,
			ChangePct:    m.PeriodChange(),
		})
	}
	return out
}

// ScenarioRows emits two rows per scenario, logn then par.
func ScenarioRows(scenarios []model.Scenario) []ScenarioRow {
	out := make([]ScenarioRow, 0, 2*len(scenarios))
	for _, s := range scenarios {
		for _, d := range []model.ScenarioDistribution{s.Distributions.Logn, s.Distributions.Par} {
			out = append(out, ScenarioRow{
				ScenarioID:   int64(s.ID),
				Title:        s.Title,
				Category:     s.Category,
				Distribution: d.Type,
				Param1:       d.Params[0],
				Param2:       d.Params[1],
				FVal202412:   d.Periods[model.Period202412].FVal,
				FVal202506:   d.Periods[model.Period202506].FVal,
				RWAX202412:   d.Periods[model.Period202412].RWAX,
				RWAX202506:   d.Periods[model.Period202506].RWAX,
			})
		}
	}
	return out
}

// Write encodes rows to w in the given format.
func Write[T Row](w io.Writer, format Format, rows []T) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatParquet:
		return WriteParquet(w, rows)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func WriteCSV[T Row](w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headerOf[T]()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteParquet writes rows with the schema derived from T's struct tags.
func WriteParquet[T Row](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

func headerOf[T Row]() []string {
	var zero T
	switch any(zero).(type) {
	case MetricRow:
		return metricHeader
	default:
		return scenarioHeader
	}
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

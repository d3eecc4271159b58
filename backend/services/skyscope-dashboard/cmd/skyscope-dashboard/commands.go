package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"skyscope/backend/services/skyscope-dashboard/internal/chart"
	"skyscope/backend/services/skyscope-dashboard/internal/client"
	"skyscope/backend/services/skyscope-dashboard/internal/config"
	"skyscope/backend/services/skyscope-dashboard/internal/status"
)

const windowLayout = "2006-01-02T15:04"

type chartAPI interface {
	status.LatestFetcher
	Filter(ctx context.Context, sensors []string, window client.Window) ([]client.Row, error)
}

func runStatus(ctx context.Context, api status.LatestFetcher, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print cards as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cards, err := status.Collect(ctx, api, time.Now())
	if err != nil {
		return fmt.Errorf("collect status: %w", err)
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cards)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSENSOR\tSTATUS\tVALUE\tTIMESTAMP")
	for _, c := range cards {
		value := "-"
		if c.Value.Valid {
			value = fmt.Sprintf("%g mag/arcsec²", c.Value.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.SensorID, c.State, value, c.Timestamp)
	}
	return tw.Flush()
}

type chartOptions struct {
	sensors []string
	window  client.Window
	format  string
	watch   bool
	bounds  chart.Bounds
	step    float64
}

type chartOutput struct {
	Start   string        `json:"start"`
	End     string        `json:"end"`
	Sensors []string      `json:"sensors"`
	Points  []chart.Point `json:"points"`
	YAxis   chart.Axis    `json:"yAxis"`
	XTicks  []int64       `json:"xTicks"`
}

func parseChartFlags(args []string, cfg *config.Config, now time.Time) (*chartOptions, error) {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	sensors := fs.String("sensors", "", "comma separated sensor ids (default all)")
	start := fs.String("start", "", "window start, local time "+windowLayout)
	end := fs.String("end", "", "window end, local time "+windowLayout)
	format := fs.String("format", "json", "output format: json or csv")
	watch := fs.Bool("watch", false, "refresh every poll interval")
	step := fs.Float64("ystep", cfg.Chart.YStep, "vertical axis step")
	ymin := fs.String("ymin", "", "vertical axis lower bound")
	ymax := fs.String("ymax", "", "vertical axis upper bound")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &chartOptions{format: *format, watch: *watch, step: *step, window: chart.DefaultWindow(now)}
	if opts.format != "json" && opts.format != "csv" {
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	if opts.step <= 0 {
		return nil, errors.New("ystep must be positive")
	}
	for _, id := range strings.Split(*sensors, ",") {
		if id = strings.TrimSpace(id); id != "" {
			opts.sensors = append(opts.sensors, id)
		}
	}

	var err error
	if *start != "" {
		if opts.window.Start, err = time.Parse(windowLayout, *start); err != nil {
			return nil, fmt.Errorf("invalid start: %w", err)
		}
	}
	if *end != "" {
		if opts.window.End, err = time.Parse(windowLayout, *end); err != nil {
			return nil, fmt.Errorf("invalid end: %w", err)
		}
	}
	if opts.window.Start.After(opts.window.End) {
		return nil, errors.New("start must not be after end")
	}
	if opts.bounds.Min, err = optionalFloat(*ymin); err != nil {
		return nil, fmt.Errorf("invalid ymin: %w", err)
	}
	if opts.bounds.Max, err = optionalFloat(*ymax); err != nil {
		return nil, fmt.Errorf("invalid ymax: %w", err)
	}
	return opts, nil
}

func runChart(ctx context.Context, api chartAPI, cfg *config.Config, logger *zap.Logger, args []string, out io.Writer) error {
	// The default window is read in the local zone since the API filters by sensor local time.
	opts, err := parseChartFlags(args, cfg, wallClock(time.Now()))
	if err != nil {
		return err
	}

	if !opts.watch {
		return renderChart(ctx, api, opts, out)
	}

	ticker := time.NewTicker(cfg.PollInterval())
	defer ticker.Stop()
	span := opts.window.End.Sub(opts.window.Start)
	for {
		if err := renderChart(ctx, api, opts, out); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warn("chart refresh failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			end := chart.DefaultWindow(wallClock(time.Now())).End
			opts.window = client.Window{Start: end.Add(-span), End: end}
		}
	}
}

func renderChart(ctx context.Context, api chartAPI, opts *chartOptions, out io.Writer) error {
	selected := opts.sensors
	if len(selected) == 0 {
		sensors, err := api.Sensors(ctx)
		if err != nil {
			return fmt.Errorf("list sensors: %w", err)
		}
		for _, s := range sensors {
			selected = append(selected, s.SensorID)
		}
	}

	rows, err := api.Filter(ctx, selected, opts.window)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("filter readings: %w", err)
	}

	points := chart.Pivot(rows, selected)
	if opts.format == "csv" {
		return chart.WriteCSV(out, points, selected)
	}

	result := chartOutput{
		Start:   chart.Label(opts.window.Start),
		End:     chart.Label(opts.window.End),
		Sensors: selected,
		Points:  points,
		YAxis:   chart.YAxis(rows, opts.step, opts.bounds),
	}
	for _, t := range chart.HourTicks(opts.window.Start, opts.window.End) {
		result.XTicks = append(result.XTicks, t.UnixMilli())
	}
	return json.NewEncoder(out).Encode(result)
}

// wallClock keeps the local reading of t and drops its zone.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

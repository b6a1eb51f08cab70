package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"s1apflow/internal/config"
	"s1apflow/internal/core/model"
	"s1apflow/internal/correlate"
	"s1apflow/internal/enrich"
	"s1apflow/internal/export"
	"s1apflow/internal/flowset"
	"s1apflow/internal/record"
	"s1apflow/internal/timefilter"
	"s1apflow/internal/tshark"
	"s1apflow/pkg/parse"
	"s1apflow/pkg/pcap"
)

// Exit codes: 0 success, 2 invalid input or unavailable external tool,
// 1 output-write failure.
const (
	exitOK          = 0
	exitWriteFailed = 1
	exitBadInput    = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: s1apflow <build|filter> [flags]")
		return exitBadInput
	}
	switch args[0] {
	case "build":
		return runBuild(args[1:])
	case "filter":
		return runFilter(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand '%s' (want build or filter)\n", args[0])
		return exitBadInput
	}
}

func loadConfig(path string) (*config.Config, bool) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return nil, false
	}
	return cfg, true
}

func runBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	csvPath := fs.String("csv", "", "decoded-record CSV exported from tshark")
	capture := fs.String("pcap", "", "S1AP-only capture used to recover nested IDs")
	out := fs.String("out", "", "output JSON path (default: session-flows-<ts>.json next to the CSV)")
	configPath := fs.String("config", "configs/config.yaml", "config file path")
	if err := fs.Parse(args); err != nil {
		return exitBadInput
	}
	if *csvPath == "" || *capture == "" {
		fmt.Fprintln(os.Stderr, "build requires -csv and -pcap")
		return exitBadInput
	}

	cfg, ok := loadConfig(*configPath)
	if !ok {
		return exitBadInput
	}
	for _, p := range []string{*csvPath, *capture} {
		if _, err := os.Stat(p); err != nil {
			fmt.Fprintf(os.Stderr, "Input not found: %s\n", p)
			return exitBadInput
		}
	}

	runner := tshark.NewRunner(cfg.Tshark.Path, cfg.Tshark.SummaryFields)
	if !runner.Available() {
		fmt.Fprintf(os.Stderr, "tshark not found at '%s'\n", runner.Path)
		return exitBadInput
	}

	ctx := context.Background()

	// One decoder pass over the capture recovers the identifiers the CSV
	// export misses (values nested inside UE-S1AP-IDs IEs).
	supplemental, err := runner.FrameIDMap(ctx, *capture)
	if err != nil {
		log.Printf("Failed to build supplemental ID map: %v", err)
		return exitBadInput
	}
	log.Printf("Supplemental ID map covers %d frames.", len(supplemental))

	records, times, err := record.ReadCSV(*csvPath)
	if err != nil {
		log.Printf("Failed to read records: %v", err)
		return exitBadInput
	}
	log.Printf("Loaded %d records from '%s'.", len(records), *csvPath)

	flows := correlate.Correlate(records, supplemental)
	flowset.FillTimes(flows, times)

	if timefilter.NeedBackfill(flows) {
		if captureTimes, err := captureFrameTimes(ctx, runner, *capture); err != nil {
			log.Printf("Warning: could not extract capture times: %v", err)
		} else {
			flowset.FillTimes(flows, captureTimes)
		}
	}
	flowset.Sort(flows)
	log.Printf("Correlated %d flows.", len(flows))

	outPath := *out
	if outPath == "" {
		ts := time.Now().Format("20060102-150405")
		outPath = filepath.Join(filepath.Dir(*csvPath), fmt.Sprintf("session-flows-%s.json", ts))
	}
	if err := flowset.Write(outPath, flows); err != nil {
		log.Printf("Failed to write flow set: %v", err)
		return exitWriteFailed
	}
	log.Printf("Wrote flow set: %s", outPath)

	deliver(ctx, cfg, flows)
	return exitOK
}

// captureFrameTimes reads frame timestamps natively, falling back to the
// external decoder for capture formats libpcap cannot open.
func captureFrameTimes(ctx context.Context, runner *tshark.Runner, capture string) (map[int]float64, error) {
	times, err := pcap.FrameTimes(capture)
	if err == nil {
		return times, nil
	}
	log.Printf("Native capture read failed (%v), falling back to the decoder.", err)
	return runner.FrameTimeMap(ctx, capture)
}

// deliver pushes the built set to the optional configured sinks. Sink
// failures are reported but do not fail the build: the JSON flow set is
// already on disk.
func deliver(ctx context.Context, cfg *config.Config, flows []*model.Flow) {
	for _, def := range cfg.Storage.Writers {
		if !def.Enabled {
			continue
		}
		switch def.Type {
		case "clickhouse":
			writer, err := flowset.NewClickHouseWriter(def.ClickHouse)
			if err != nil {
				log.Printf("Warning: clickhouse writer unavailable: %v", err)
				continue
			}
			if err := writer.Write(ctx, flows); err != nil {
				log.Printf("Warning: clickhouse write failed: %v", err)
			}
		default:
			log.Printf("Warning: unknown writer type '%s' in config, skipping.", def.Type)
		}
	}

	if cfg.Export.Enabled {
		pub, err := export.NewPublisher(cfg.Export.NATSURL, cfg.Export.Subject)
		if err != nil {
			log.Printf("Warning: NATS export unavailable: %v", err)
			return
		}
		defer pub.Close()
		if err := pub.PublishAll(flows); err != nil {
			log.Printf("Warning: NATS export failed: %v", err)
		}
	}
}

func runFilter(args []string) int {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	flowsPath := fs.String("flows", "", "input flow-set JSON (from build)")
	capture := fs.String("pcap", "", "capture used for time backfill and summaries")
	startArg := fs.String("start", "", "start time (epoch seconds or ISO 8601)")
	endArg := fs.String("end", "", "end time (epoch seconds or ISO 8601)")
	modeArg := fs.String("mode", "contained", "filter mode: contained or overlap")
	out := fs.String("out", "", "output JSON path (default: session-flows-<ts>-filtered.json next to the flows JSON)")
	showTime := fs.Bool("showtime", false, "include ISO UTC start/end times in the output")
	showFrames := fs.Bool("showframenum", false, "include the frame-number list in each output flow")
	configPath := fs.String("config", "configs/config.yaml", "config file path")
	if err := fs.Parse(args); err != nil {
		return exitBadInput
	}
	if *flowsPath == "" || *capture == "" || *startArg == "" || *endArg == "" {
		fmt.Fprintln(os.Stderr, "filter requires -flows, -pcap, -start and -end")
		return exitBadInput
	}

	cfg, ok := loadConfig(*configPath)
	if !ok {
		return exitBadInput
	}
	for _, p := range []string{*flowsPath, *capture} {
		if _, err := os.Stat(p); err != nil {
			fmt.Fprintf(os.Stderr, "Input not found: %s\n", p)
			return exitBadInput
		}
	}

	start, err := parse.Time(*startArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadInput
	}
	end, err := parse.Time(*endArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadInput
	}
	if start > end {
		fmt.Fprintln(os.Stderr, "Start time must be <= end time")
		return exitBadInput
	}
	mode, err := timefilter.ParseMode(*modeArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadInput
	}

	runner := tshark.NewRunner(cfg.Tshark.Path, cfg.Tshark.SummaryFields)
	if !runner.Available() {
		fmt.Fprintf(os.Stderr, "tshark not found at '%s'; required for pkt_summary_csv\n", runner.Path)
		return exitBadInput
	}

	flows, err := flowset.Read(*flowsPath)
	if err != nil {
		log.Printf("Failed to read flow set: %v", err)
		return exitBadInput
	}

	if timefilter.NeedBackfill(flows) {
		if times, err := captureFrameTimes(context.Background(), runner, *capture); err != nil {
			log.Printf("Warning: could not extract capture times for backfill: %v", err)
		} else {
			timefilter.Backfill(flows, times)
		}
	}

	kept, err := timefilter.Filter(flows, start, end, mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadInput
	}
	log.Printf("Kept %d of %d flows for [%v, %v] (%s).", len(kept), len(flows), start, end, mode)

	enricher := enrich.New(runner, cfg.Tshark.ChunkBudget, cfg.Enrich.NumWorkers)
	set, err := enricher.EnrichAll(context.Background(), *capture, kept, enrich.Options{
		ShowTime:   *showTime,
		ShowFrames: *showFrames,
	})
	if err != nil {
		log.Printf("Failed to enrich flows: %v", err)
		return exitBadInput
	}

	outPath := *out
	if outPath == "" {
		ts := time.Now().Format("20060102-150405")
		outPath = filepath.Join(filepath.Dir(*flowsPath), fmt.Sprintf("session-flows-%s-filtered.json", ts))
	}
	if err := flowset.WriteFiltered(outPath, set); err != nil {
		log.Printf("Failed to write filtered flows: %v", err)
		return exitWriteFailed
	}
	log.Printf("Wrote filtered flows: %s", outPath)
	return exitOK
}

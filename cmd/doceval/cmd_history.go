package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/spf13/cobra"
)

func runExportHistory(cmd *cobra.Command, args []string) {
	runID := args[0]

	outputFlag, _ := cmd.Flags().GetString("output")

	// Default filename
	defaultName := fmt.Sprintf("doceval_%s.csv", runID)
	var outputFile string

	if outputFlag == "" {
		outputFile = defaultName
	} else {
		// Check if the provided path is an existing directory
		info, err := os.Stat(outputFlag)
		if err == nil && info.IsDir() {
			// User provided a folder (e.g., ~/Desktop/), so append the filename
			outputFile = filepath.Join(outputFlag, defaultName)
		} else {
			// User provided a full file path (e.g., ~/Desktop/my_results.csv)
			outputFile = outputFlag
		}
	}

	fmt.Printf("Exporting results for Run ID: %s to %s...\n", runID, outputFile)

	// 1. Connect to InfluxDB using the same resolution as the history sink
	url := os.Getenv("INFLUXDB_URL")
	if url == "" {
		url = "http://localhost:12130"
	}
	token := os.Getenv("INFLUXDB_TOKEN")
	if token == "" {
		token = "your_super_secret_admin_token"
	}
	org := os.Getenv("INFLUXDB_ORG")
	if org == "" {
		org = "aleutian"
	}
	bucket := os.Getenv("INFLUXDB_BUCKET")
	if bucket == "" {
		bucket = "doceval"
	}

	client := influxdb2.NewClient(url, token)
	defer client.Close()

	queryAPI := client.QueryAPI(org)

	// 2. Query Data
	// Pivot fields so we get a proper table structure
	query := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -10y)
		  |> filter(fn: (r) => r["_measurement"] == "docstring_evaluations")
		  |> filter(fn: (r) => r["run_id"] == "%s")
		  |> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
		  |> sort(columns: ["_time"])
	`, bucket, runID)

	result, err := queryAPI.Query(context.Background(), query)
	if err != nil {
		slog.Error("InfluxDB query failed", "error", err)
		return
	}

	// 3. Create CSV
	f, err := os.Create(outputFile)
	if err != nil {
		slog.Error("Failed to create output file", "error", err)
		return
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close output file", "error", closeErr)
		}
	}()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// 4. Write Header
	header := []string{
		"Time", "Dataset", "Encoder", "Avg_Param_Coverage", "Avg_Return_Coverage",
		"Avg_Containment", "Avg_Usefulness", "Avg_Semantic_Similarity",
		"Avg_Rouge_L", "BLEU", "Entries", "Skipped", "Duration_Seconds",
	}
	if err := writer.Write(header); err != nil {
		slog.Error("Failed to write CSV header", "error", err)
		return
	}

	// 5. Write Rows
	count := 0
	for result.Next() {
		r := result.Record()

		// Helpers for safe value extraction
		getFloat := func(k string) string {
			if v, ok := r.ValueByKey(k).(float64); ok {
				return fmt.Sprintf("%.4f", v)
			}
			return "0.0000"
		}
		getInt := func(k string) string {
			if v, ok := r.ValueByKey(k).(int64); ok {
				return fmt.Sprintf("%d", v)
			}
			return "0"
		}
		getString := func(k string) string {
			if v, ok := r.ValueByKey(k).(string); ok {
				return v
			}
			return ""
		}

		row := []string{
			r.Time().Format(time.RFC3339),
			getString("dataset"),
			getString("encoder"),
			getFloat("avg_param_coverage"),
			getFloat("avg_return_coverage"),
			getFloat("avg_containment"),
			getFloat("avg_usefulness"),
			getFloat("avg_semantic_similarity"),
			getFloat("avg_rouge_l"),
			getFloat("bleu"),
			getInt("entries"),
			getInt("skipped"),
			getFloat("duration_seconds"),
		}
		if err := writer.Write(row); err != nil {
			slog.Error("Failed to write CSV row", "error", err)
			return
		}
		count++
	}

	if result.Err() != nil {
		slog.Error("Error reading query results", "error", result.Err())
		return
	}

	fmt.Printf("✅ Export complete: %d rows written to %s\n", count, outputFile)
}

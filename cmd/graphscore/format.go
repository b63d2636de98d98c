package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"graphscore/internal/clinical"
	"graphscore/internal/output"
	"graphscore/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// ScoreResponseCLI is the result of scoring one graph.
type ScoreResponseCLI struct {
	Score           string   `json:"score"`
	Graph           string   `json:"graph"`
	ObstructionAttr string   `json:"obstructionAttr"`
	Value           float64  `json:"value"`
	Traces          []string `json:"traces,omitempty"`
}

// BatchResponseCLI summarizes a persisted batch run.
type BatchResponseCLI struct {
	RunID    string                   `json:"runId"`
	Score    string                   `json:"score"`
	Scores   []storage.PatientScore   `json:"scores"`
	Failures []storage.PatientFailure `json:"failures,omitempty"`
}

// CorrelationResponseCLI is a score/biomarker correlation per attribute.
type CorrelationResponseCLI struct {
	Score     string                          `json:"score"`
	Biomarker string                          `json:"biomarker"`
	Results   map[string]clinical.Correlation `json:"results"`
}

// RunsResponseCLI lists stored batch runs.
type RunsResponseCLI struct {
	Runs []storage.ScoreRun `json:"runs"`
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ScoreResponseCLI:
		return formatScoreHuman(v)
	case *BatchResponseCLI:
		return formatBatchHuman(v)
	case *CorrelationResponseCLI:
		return formatCorrelationHuman(v)
	case *RunsResponseCLI:
		return formatRunsHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatScoreHuman(resp *ScoreResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s score for %s\n", resp.Score, resp.Graph))
	b.WriteString(fmt.Sprintf("  Attribute: %s\n", resp.ObstructionAttr))
	b.WriteString(fmt.Sprintf("  Score: %s\n", output.FormatScore(resp.Value)))
	if len(resp.Traces) > 0 {
		b.WriteString("  Matched edges:\n")
		for _, trace := range resp.Traces {
			b.WriteString(fmt.Sprintf("    %s\n", trace))
		}
	}
	return b.String(), nil
}

func formatBatchHuman(resp *BatchResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Batch run %s (%s)\n", resp.RunID, resp.Score))
	for _, s := range resp.Scores {
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			s.PatientID, s.ObstructionAttr, output.FormatScore(s.Score)))
	}
	if len(resp.Failures) > 0 {
		b.WriteString("Failures:\n")
		for _, f := range resp.Failures {
			b.WriteString(fmt.Sprintf("  %s  %s\n", f.PatientID, f.Error))
		}
	}
	return b.String(), nil
}

func formatCorrelationHuman(resp *CorrelationResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Correlation of %s score with %s\n", resp.Score, resp.Biomarker))
	for attr, c := range resp.Results {
		if math.IsNaN(c.R) {
			b.WriteString(fmt.Sprintf("  %s: insufficient data (%d samples)\n", attr, c.Samples))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: r=%.4f p=%.4f (n=%d)\n", attr, c.R, c.PValue, c.Samples))
	}
	return b.String(), nil
}

func formatRunsHuman(resp *RunsResponseCLI) (string, error) {
	var b strings.Builder
	if len(resp.Runs) == 0 {
		return "No stored runs\n", nil
	}
	for _, run := range resp.Runs {
		b.WriteString(fmt.Sprintf("%s  %s  %s  scored=%d failed=%d  %s\n",
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.ID, run.ScoreName, len(run.Scores), len(run.Failures),
			run.ObstructionAttr))
	}
	return b.String(), nil
}

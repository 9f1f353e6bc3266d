package bench

import (
	"github.com/lawbench/law-bench/internal/config"
	"github.com/lawbench/law-bench/internal/report"
	"github.com/lawbench/law-bench/internal/scoring"
)

// Metrics assembles the aggregate report payload for this result.
// Metadata is echoed verbatim.
func (res *Result) Metrics(metadata map[string]string) report.Metrics {
	perSource := make(map[string]scoring.Summary, len(res.Summaries))
	for source, summary := range res.Summaries {
		if source == scoring.AllSources {
			continue
		}
		perSource[source] = summary
	}
	return report.Metrics{
		Overall:         res.Summaries[scoring.AllSources],
		PerSource:       perSource,
		Failures:        len(res.Failures),
		DurationSeconds: res.Duration.Seconds(),
		Metadata:        metadata,
	}
}

// SaveArtifacts writes the predictions, metrics, per-source breakdown,
// and bad-case diff files for one run.
func SaveArtifacts(res *Result, paths config.OutputPaths, metadata map[string]string) error {
	metrics := res.Metrics(metadata)

	predictions := res.Predictions
	if predictions == nil {
		predictions = []Prediction{}
	}
	if err := report.SaveJSON(predictions, paths.Predictions); err != nil {
		return err
	}
	if err := report.WriteMetricsJSON(metrics, paths.MetricsJSON); err != nil {
		return err
	}
	if err := report.WriteMetricsCSV(metrics, paths.MetricsCSV); err != nil {
		return err
	}
	if err := report.WritePerSourceCSV(res.Summaries, paths.PerSourceCSV); err != nil {
		return err
	}
	return report.WriteDiffCases(res.DiffCases, paths.BadCases)
}

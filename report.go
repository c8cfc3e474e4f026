package clusterlens

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/report.html
var htmlTemplate string

//go:embed templates/styles.css
var cssStyles string

// RenderMarkdown formats an analysis as a markdown report.
func RenderMarkdown(result *ClusteringResult, analysis *ClusterAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Cluster Analysis: %s\n\n", result.DatasetName)
	fmt.Fprintf(&b, "%s algorithm, %d %s, %d clusters",
		result.Algorithm, analysis.TotalPoints, analysis.Terminology.Plural, analysis.TotalClusters)
	if analysis.NoisePoints > 0 {
		fmt.Fprintf(&b, ", %d noise points", analysis.NoisePoints)
	}
	b.WriteString("\n\n")

	b.WriteString("## Overview\n\n")
	b.WriteString(analysis.ExecutiveSummary.Overview)
	b.WriteString("\n\n")

	if len(result.Metrics) > 0 {
		b.WriteString("## Quality Metrics\n\n")
		b.WriteString("| Metric | Value |\n|---|---|\n")
		for _, key := range sortedMetricKeys(result.Metrics) {
			fmt.Fprintf(&b, "| %s | %s |\n", metricLabel(key), formatMetric(key, result.Metrics[key]))
		}
		b.WriteString("\n")
	}

	if len(analysis.ExecutiveSummary.KeyInsights) > 0 {
		b.WriteString("## Key Insights\n\n")
		for _, insight := range analysis.ExecutiveSummary.KeyInsights {
			fmt.Fprintf(&b, "- **%s**: %s\n", insight.Title, insight.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Clusters\n\n")
	for _, insight := range analysis.ClusterInsights {
		fmt.Fprintf(&b, "### Cluster %d\n\n", insight.ClusterID)
		fmt.Fprintf(&b, "%s\n\n", insight.Description)
		fmt.Fprintf(&b, "- Size: %d %s (%.1f%%)\n", insight.Size, analysis.Terminology.Plural, insight.Percentage)
		for _, attr := range insight.KeyAttributes {
			fmt.Fprintf(&b, "- %s\n", attr)
		}
		for _, factor := range insight.DistinguishingFactors {
			fmt.Fprintf(&b, "- %s\n", factor)
		}
		b.WriteString("\n")
	}

	if len(analysis.ExecutiveSummary.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for i, rec := range analysis.ExecutiveSummary.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func sortedMetricKeys(metrics map[string]float64) []string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func metricLabel(key string) string {
	switch key {
	case "silhouette_score":
		return "Silhouette Score"
	case "davies_bouldin_index":
		return "Davies-Bouldin Index"
	case "calinski_harabasz_index":
		return "Calinski-Harabasz Index"
	case "n_clusters":
		return "Clusters"
	case "n_noise":
		return "Noise Points"
	default:
		return key
	}
}

func formatMetric(key string, value float64) string {
	if key == "n_clusters" || key == "n_noise" {
		return fmt.Sprintf("%d", int(value))
	}
	return fmt.Sprintf("%.3f", value)
}

// RenderHTML converts a markdown report into a complete HTML document with
// embedded CSS.
func RenderHTML(title, markdownContent string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Linkify,
			extension.Strikethrough,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithHardWraps(),
			htmlrenderer.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdownContent), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML template: %w", err)
	}

	data := struct {
		Title string
		Date  string
		Body  template.HTML
		CSS   template.CSS
	}{
		Title: title,
		Date:  time.Now().Format("2 January 2006"),
		Body:  template.HTML(buf.String()),
		CSS:   template.CSS(cssStyles),
	}

	var result bytes.Buffer
	if err := tmpl.Execute(&result, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return result.String(), nil
}

// ReportCmd writes report.md and report.html for a stored result.
var ReportCmd = &cobra.Command{
	Use:   "report [file] [result-id]",
	Short: "Generate markdown and HTML reports for a stored result",
	Run: func(cmd *cobra.Command, args []string) {
		ds, result, ok := loadDatasetAndResult(args[0], args[1])
		if !ok {
			return
		}
		analysis, err := AnalyzeClusters(ds, result)
		if err != nil {
			log.Printf("Analysis failed: %v", err)
			return
		}

		report := RenderMarkdown(result, analysis)

		if narrative, err := GenerateNarrative(result, analysis); err != nil {
			log.Printf("Skipping narrative summary: %v", err)
		} else if narrative != nil {
			report += formatNarrative(narrative)
		}

		if err := os.WriteFile("report.md", []byte(report), 0644); err != nil {
			log.Printf("Failed to write report file: %v", err)
			return
		}
		log.Println("Report generated: report.md")

		htmlContent, err := RenderHTML(fmt.Sprintf("Cluster Analysis: %s", result.DatasetName), report)
		if err != nil {
			log.Printf("Failed to generate HTML report: %v", err)
			return
		}
		if err := os.WriteFile("report.html", []byte(htmlContent), 0644); err != nil {
			log.Printf("Failed to write HTML file: %v", err)
			return
		}
		log.Println("HTML report generated: report.html")
	},
	Args: cobra.ExactArgs(2),
}

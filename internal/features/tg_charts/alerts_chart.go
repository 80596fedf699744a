package tg_charts

// Weekly alerts bar chart for the Telegram daily digest.

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"pool-sentry/internal/features/alertstats"
	logging "pool-sentry/internal/infra/log"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

const (
	chartWidth  = 1600
	chartHeight = 900

	chartAreaLeft   = 150.0
	chartAreaRight  = 1450.0
	chartAreaTop    = 200.0
	chartAreaBottom = 780.0

	barSpacing = 40.0

	titleFontSize = 48.0
	valueFontSize = 30.0
	dateFontSize  = 24.0

	barValueOffsetY = 16.0
	dateOffsetY     = 40.0
)

var fontPaths = []string{
	"etc/fonts/Inter-Regular.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
}

// GenerateAlertsChart renders the last seven days of alert counts and
// returns the saved PNG path.
func GenerateAlertsChart(recorder *alertstats.Recorder) (string, error) {
	days := recorder.LastNDays(7)
	if len(days) == 0 {
		return "", fmt.Errorf("no alert stats available")
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetColor(color.Black)
	dc.Clear()

	var loadedFontPath string
	for _, fontPath := range fontPaths {
		if _, err := os.Stat(fontPath); err == nil {
			if err := dc.LoadFontFace(fontPath, titleFontSize); err == nil {
				loadedFontPath = fontPath
				break
			}
		}
	}
	if loadedFontPath == "" {
		logging.LogWarn("No chart font found, using default system font",
			zap.Int("paths_checked", len(fontPaths)))
	}

	setFont := func(size float64) {
		if loadedFontPath != "" {
			dc.LoadFontFace(loadedFontPath, size)
		}
	}

	dc.SetColor(color.White)
	setFont(titleFontSize)
	dc.DrawString("Alerts sent (last 7 days)", chartAreaLeft, 110)

	maxCount := 1
	for _, d := range days {
		if d.Count > maxCount {
			maxCount = d.Count
		}
	}

	chartAreaHeight := chartAreaBottom - chartAreaTop
	barWidth := (chartAreaRight - chartAreaLeft - float64(len(days)-1)*barSpacing) / float64(len(days))

	// Baseline and a mid grid line keep the bars readable on dark bg.
	dc.SetColor(color.RGBA{70, 70, 70, 255})
	dc.SetLineWidth(1)
	dc.DrawLine(chartAreaLeft, chartAreaBottom, chartAreaRight, chartAreaBottom)
	dc.Stroke()
	dc.DrawLine(chartAreaLeft, chartAreaTop+chartAreaHeight/2, chartAreaRight, chartAreaTop+chartAreaHeight/2)
	dc.Stroke()

	for i, d := range days {
		barX := chartAreaLeft + float64(i)*(barWidth+barSpacing)
		barHeight := (float64(d.Count) / float64(maxCount)) * chartAreaHeight
		barY := chartAreaBottom - barHeight

		dc.SetColor(color.RGBA{64, 160, 255, 255})
		dc.DrawRectangle(barX, barY, barWidth, barHeight)
		dc.Fill()

		if d.Count > 0 {
			dc.SetColor(color.White)
			setFont(valueFontSize)
			valueText := fmt.Sprintf("%d", d.Count)
			textWidth, _ := dc.MeasureString(valueText)
			dc.DrawString(valueText, barX+(barWidth-textWidth)/2, barY-barValueOffsetY)
		}

		dc.SetColor(color.White)
		setFont(dateFontSize)
		dateText := d.Day.Format("Mon")
		dateTextWidth, _ := dc.MeasureString(dateText)
		dc.DrawString(dateText, barX+(barWidth-dateTextWidth)/2, chartAreaBottom+dateOffsetY)
	}

	chartsDir := filepath.Join("etc", "charts")
	if err := os.MkdirAll(chartsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create charts directory: %w", err)
	}

	filename := filepath.Join(chartsDir, "alerts_chart.png")
	if err := dc.SavePNG(filename); err != nil {
		return "", fmt.Errorf("failed to save chart: %w", err)
	}

	fileInfo, err := os.Stat(filename)
	if err != nil {
		return "", fmt.Errorf("failed to stat chart file: %w", err)
	}
	if fileInfo.Size() == 0 {
		os.Remove(filename)
		return "", fmt.Errorf("chart file is empty after rendering")
	}

	logging.LogInfo("Alerts chart generated",
		zap.String("filename", filename),
		zap.Int64("fileSize", fileInfo.Size()))
	return filename, nil
}

package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"PumpScope/internal/domain/models"
)

const (
	lastPriceSuffix = "lastprice"
	markPriceSuffix = "fairprice"
)

func (r *Recorder) writeChartFiles(s *session) error {
	stamp := s.startTime.Format("20060102_150405")

	lastName := fmt.Sprintf("%s_%s_%s_%s.csv", s.symbol, s.strategy, stamp, lastPriceSuffix)
	if err := writeCandlesCSV(filepath.Join(r.chartsDir, lastName), s.lastCandles); err != nil {
		return fmt.Errorf("write %s: %w", lastName, err)
	}

	markName := fmt.Sprintf("%s_%s_%s_%s.csv", s.symbol, s.strategy, stamp, markPriceSuffix)
	if err := writeCandlesCSV(filepath.Join(r.chartsDir, markName), s.markCandles); err != nil {
		return fmt.Errorf("write %s: %w", markName, err)
	}
	return nil
}

// writeCandlesCSV writes to a temp file and renames it into place, so a
// crashed or failed write never leaves a half-written chart behind.
func writeCandlesCSV(path string, candles []models.Candle) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	w := bufio.NewWriter(f)
	if _, err := w.WriteString("timestamp_ms,open,high,low,close,volume\n"); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range candles {
		line := strconv.FormatInt(c.TimestampMS, 10) + "," +
			formatPrice(c.Open) + "," +
			formatPrice(c.High) + "," +
			formatPrice(c.Low) + "," +
			formatPrice(c.Close) + "," +
			formatPrice(c.Volume) + "\n"
		if _, err := w.WriteString(line); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

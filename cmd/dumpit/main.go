package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/internal/dbg"
	"github.com/imemo88/nautilus-trader/pkg/datasource/historical"
)

const csvTimeLayout = "2006-01-02 15:04:05.999999999Z07:00"

// readQuotes parses a csv of "timestamp,bid,ask,bid_volume,ask_volume" rows with a header.
func readQuotes(r io.Reader) ([]historical.BinaryTick, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("unable to read header: %w", err)
	}

	var ticks []historical.BinaryTick
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return ticks, nil
		}
		if err != nil {
			return nil, err
		}

		ts, err := time.Parse(csvTimeLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(ticks)+1, err)
		}

		var values [4]float64
		for i := range values {
			if values[i], err = strconv.ParseFloat(record[i+1], 64); err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", len(ticks)+1, i+1, err)
			}
		}

		ticks = append(ticks, historical.BinaryTick{
			TimeStamp: ts.UnixNano(),
			Bid:       values[0],
			Ask:       values[1],
			BidVolume: values[2],
			AskVolume: values[3],
		})
	}
}

func dumpIt(csvPath string, w io.Writer) (int, error) {
	csvFile, err := os.Open(csvPath)
	if err != nil {
		return 0, err
	}
	defer func(csvFile *os.File) {
		_ = csvFile.Close()
	}(csvFile)

	ticks, err := readQuotes(csvFile)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", csvPath, err)
	}
	return len(ticks), historical.WriteTicks(w, ticks)
}

func dumpAll(logger *zap.Logger, symbol string, fromYear, toYear int) error {
	binPath := symbol + ".bin"
	binFile, err := os.Create(binPath)
	if err != nil {
		return err
	}

	for year := fromYear; year <= toYear; year++ {
		csvPath := symbol + "_" + strconv.Itoa(year) + ".csv"
		n, err := dumpIt(csvPath, binFile)
		if err != nil {
			_ = binFile.Close()
			return errors.Join(err, os.Remove(binPath))
		}
		logger.Info("dump finished", zap.String("symbol", symbol), zap.String("file", csvPath), zap.Int("ticks", n))
	}

	return binFile.Close()
}

func main() {
	symbol := flag.String("symbol", "", "symbol code, e.g. AUDUSD")
	fromYear := flag.Int("from", 2018, "first year")
	toYear := flag.Int("to", 2025, "last year")
	flag.Parse()

	logger := dbg.NewDevLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	if *symbol == "" {
		logger.Error("symbol is required")
	} else if err := dumpAll(logger, *symbol, *fromYear, *toYear); err != nil {
		logger.Error("failed to dump", zap.Error(err))
	} else {
		logger.Info("done")
	}
}

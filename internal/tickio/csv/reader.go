// Package csv parses the tab-separated tick format described by the
// external ingestion interface: a header row of
// <DATE> <TIME> <BID> <ASK> <LAST> <VOLUME> <FLAGS>, one line per tick.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

func init() {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})
}

type row struct {
	Date   string `csv:"<DATE>"`
	Time   string `csv:"<TIME>"`
	Bid    string `csv:"<BID>"`
	Ask    string `csv:"<ASK>"`
	Last   string `csv:"<LAST>"`
	Volume string `csv:"<VOLUME>"`
	Flags  string `csv:"<FLAGS>"`
}

// LoadTicks parses the file at path into a TickStore-ready slice. An empty
// or unparsable BID, ASK or VOLUME field carries forward the previous
// row's value; an empty or non-integer FLAGS field is an error.
func LoadTicks(path string) ([]model.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	var rows []row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("csv: unmarshal %q: %w", path, err)
	}

	ticks := make([]model.Tick, 0, len(rows))
	var prevBid, prevAsk, prevVolume fixed.Point

	for i, r := range rows {
		ts, err := parseTimestamp(r.Date, r.Time)
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", i, err)
		}

		bid := parseOrDefault(r.Bid, prevBid)
		ask := parseOrDefault(r.Ask, prevAsk)
		volume := parseOrDefault(r.Volume, prevVolume)

		flags, err := strconv.Atoi(r.Flags)
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: invalid flags %q: %w", i, r.Flags, err)
		}

		ticks = append(ticks, model.Tick{
			TimeStamp: ts.UnixNano(),
			Bid:       bid,
			Ask:       ask,
			Volume:    volume,
			Flags:     model.Flags(flags),
		})

		prevBid, prevAsk, prevVolume = bid, ask, volume
	}

	return ticks, nil
}

func parseOrDefault(s string, prev fixed.Point) fixed.Point {
	if s == "" {
		return prev
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return prev
	}
	return fixed.FromFloat64(v)
}

func parseTimestamp(date, clock string) (time.Time, error) {
	combined := date + " " + clock
	if t, err := time.Parse("2006.01.02 15:04:05.000", combined); err == nil {
		return t, nil
	}
	return time.Parse("2006.01.02 15:04:05", combined)
}

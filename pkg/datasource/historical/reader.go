package historical

import (
	"fmt"
	"time"

	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/utility"
)

const (
	invalidIndex            = -1
	tickReaderComponentName = "datasource.historical.reader"
)

// TickReader iterates the records of a source inside [from, to]. A zero bound is open.
type TickReader struct {
	source *Source[BinaryTick]

	symbol      string
	priceDigits int
	from        int64
	to          int64
	idx         int64
}

func NewTickReader(source *Source[BinaryTick], symbol string, priceDigits int, from, to time.Time) *TickReader {
	r := &TickReader{
		source:      source,
		symbol:      symbol,
		priceDigits: priceDigits,
		idx:         invalidIndex,
	}
	if !from.IsZero() {
		r.from = from.UnixNano()
	}
	if !to.IsZero() {
		r.to = to.UnixNano()
	}
	return r
}

func (t *TickReader) GetNext() (common.Tick, error) {
	var binTick BinaryTick

	if t.idx == invalidIndex {
		idx, err := t.lookupStartIndex()
		if err != nil {
			return common.Tick{}, err
		}
		t.idx = idx
	}

	if err := t.source.Read(t.idx, &binTick); err != nil {
		return common.Tick{}, err
	}
	t.idx++

	if t.to != 0 && binTick.TimeStamp > t.to {
		return common.Tick{}, datasource.ErrEndOfData
	}

	tick := binTick.ToTick(t.symbol, t.priceDigits)
	tick.Source = tickReaderComponentName
	tick.ExecutionId = utility.GetExecutionID()
	tick.TraceID = utility.CreateTraceID()

	return tick, nil
}

// lookupStartIndex finds the first record at or after from by binary search. It returns
// the entry count when there is none, which reads as the end of data.
func (t *TickReader) lookupStartIndex() (int64, error) {
	var entry BinaryTick

	low := int64(0)
	high := t.source.EntryCount() - 1

	for low <= high {
		mid := (low + high) / 2

		if err := t.source.Read(mid, &entry); err != nil {
			return invalidIndex, fmt.Errorf("error reading entry at index %d: %w", mid, err)
		}

		if entry.TimeStamp < t.from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	return low, nil
}

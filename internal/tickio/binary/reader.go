// Package binary loads a fixed-width binary tick archive via memory
// mapping, the fast path for large historical tick files.
package binary

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

var ErrEOF = errors.New("binary: EOF")

// Tick is the fixed-width on-disk record. Padding-free by construction;
// Reader's unsafe cast depends on that.
type Tick struct {
	TimeStamp int64
	Bid       float64
	Ask       float64
	Volume    float64
	Flags     int32
	_         int32 // padding to keep the struct 8-byte aligned
}

func (t Tick) ToModelTick() model.Tick {
	return model.Tick{
		TimeStamp: t.TimeStamp,
		Bid:       fixed.FromFloat64(t.Bid),
		Ask:       fixed.FromFloat64(t.Ask),
		Volume:    fixed.FromFloat64(t.Volume),
		Flags:     model.Flags(t.Flags),
	}
}

// Reader memory-maps a fixed-width record file and reads records by index
// without loading the whole file into the heap.
type Reader[T any] struct {
	dataSourceName string
	reader         *mmap.ReaderAt
	bufferPool     *sync.Pool
}

func NewReader[T any](dataSourceName string) *Reader[T] {
	return &Reader[T]{
		dataSourceName: dataSourceName,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, int(unsafe.Sizeof(*new(T))))
				return &buffer
			},
		},
	}
}

func (r *Reader[T]) Open() error {
	var err error
	r.reader, err = mmap.Open(r.dataSourceName)
	if err != nil {
		return fmt.Errorf("binary: open data source %q: %w", r.dataSourceName, err)
	}
	return nil
}

func (r *Reader[T]) Close() error {
	return r.reader.Close()
}

func (r *Reader[T]) Read(index int64, data *T) error {
	buffer := r.bufferPool.Get().(*[]byte)
	defer r.bufferPool.Put(buffer)

	offset := index * int64(len(*buffer))

	n, err := r.reader.ReadAt(*buffer, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("binary: read: %w", err)
	}
	if n < len(*buffer) {
		return ErrEOF
	}

	*data = *(*T)(unsafe.Pointer(&(*buffer)[0]))
	return nil
}

func (r *Reader[T]) EntryCount() (int64, error) {
	var entry T
	entrySize := int64(unsafe.Sizeof(entry))
	if entrySize == 0 {
		return 0, fmt.Errorf("binary: size of T is zero")
	}

	info, err := os.Stat(r.dataSourceName)
	if err != nil {
		return 0, fmt.Errorf("binary: stat %q: %w", r.dataSourceName, err)
	}

	total := info.Size()
	if total%entrySize != 0 {
		return 0, fmt.Errorf("binary: file size %d is not a multiple of entry size %d", total, entrySize)
	}
	return total / entrySize, nil
}

// LoadTicks reads every record in the archive and converts it to a
// model.Tick, producing the in-memory slice a TickStore is built from.
func LoadTicks(path string) ([]model.Tick, error) {
	r := NewReader[Tick](path)
	if err := r.Open(); err != nil {
		return nil, err
	}
	defer r.Close()

	count, err := r.EntryCount()
	if err != nil {
		return nil, err
	}

	ticks := make([]model.Tick, 0, count)
	var raw Tick
	for i := int64(0); i < count; i++ {
		if err := r.Read(i, &raw); err != nil {
			return nil, fmt.Errorf("binary: read entry %d: %w", i, err)
		}
		ticks = append(ticks, raw.ToModelTick())
	}
	return ticks, nil
}

// LoadTicksRange reads only the records whose timestamp falls in
// [from, to], locating the start with a binary search over the archive
// rather than scanning from the first record.
func LoadTicksRange(path string, from, to int64) ([]model.Tick, error) {
	r := NewReader[Tick](path)
	if err := r.Open(); err != nil {
		return nil, err
	}
	defer r.Close()

	count, err := r.EntryCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("binary: entry count is zero")
	}

	start, err := lookupStartIndex(r, count, from)
	if err != nil {
		return nil, err
	}

	var ticks []model.Tick
	var raw Tick
	for i := start; i < count; i++ {
		if err := r.Read(i, &raw); err != nil {
			return nil, fmt.Errorf("binary: read entry %d: %w", i, err)
		}
		if raw.TimeStamp > to {
			break
		}
		ticks = append(ticks, raw.ToModelTick())
	}
	return ticks, nil
}

// lookupStartIndex binary-searches the archive for the first entry whose
// timestamp is >= from.
func lookupStartIndex(r *Reader[Tick], count, from int64) (int64, error) {
	var entry Tick
	low, high := int64(0), count-1

	for low <= high {
		mid := (low + high) / 2
		if err := r.Read(mid, &entry); err != nil {
			return 0, fmt.Errorf("binary: read entry %d: %w", mid, err)
		}
		if entry.TimeStamp < from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	if low >= count {
		return 0, fmt.Errorf("binary: no entry found with timestamp >= %d", from)
	}
	return low, nil
}

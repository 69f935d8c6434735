package historical

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const binaryReaderComponentName = "datasource.historical.binary"

// BinaryBar is the fixed-width on-disk candle record. Timestamps are unix
// nanoseconds. Layout must stay in sync with the exporter.
type BinaryBar struct {
	OpenTime  int64
	CloseTime int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (b BinaryBar) toBar(bar *common.Bar) {
	bar.OpenTime = time.Unix(0, b.OpenTime).UTC()
	bar.CloseTime = time.Unix(0, b.CloseTime).UTC()
	bar.Open = fixed.FromFloat64(b.Open)
	bar.High = fixed.FromFloat64(b.High)
	bar.Low = fixed.FromFloat64(b.Low)
	bar.Close = fixed.FromFloat64(b.Close)
	bar.Volume = fixed.FromFloat64(b.Volume)
}

// BinarySource memory-maps a file of BinaryBar records for random access.
type BinarySource struct {
	path       string
	reader     *mmap.ReaderAt
	bufferPool *sync.Pool
}

func NewBinarySource(path string) *BinarySource {
	return &BinarySource{
		path: path,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, int(unsafe.Sizeof(BinaryBar{})))
				return &buffer
			},
		},
	}
}

func (s *BinarySource) Open() error {
	var err error
	s.reader, err = mmap.Open(s.path)
	if err != nil {
		return fmt.Errorf("unable to open data source %q: %w", s.path, err)
	}
	return nil
}

func (s *BinarySource) Close() {
	_ = s.reader.Close()
}

func (s *BinarySource) Read(index int64, record *BinaryBar) error {
	buffer := s.bufferPool.Get().(*[]byte)
	defer s.bufferPool.Put(buffer)

	offset := index * int64(len(*buffer))

	n, err := s.reader.ReadAt(*buffer, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("unable to read: %w", err)
	}
	if n < len(*buffer) {
		return io.EOF
	}

	*record = *(*BinaryBar)(unsafe.Pointer(&(*buffer)[0])) // #nosec G103
	return nil
}

func (s *BinarySource) EntryCount() (int64, error) {
	entrySize := int64(unsafe.Sizeof(BinaryBar{}))

	fileInfo, err := os.Stat(s.path)
	if err != nil {
		return 0, fmt.Errorf("unable to get data source %q stats: %w", s.path, err)
	}

	totalSize := fileInfo.Size()
	if totalSize%entrySize != 0 {
		return 0, fmt.Errorf("file size is not a multiple of entry size")
	}

	return totalSize / entrySize, nil
}

// LoadBinary reads records with close times inside [from, to] into a Series.
// The start index is located with a binary search over the mapped file, so
// slicing a window out of a multi-year archive stays cheap.
func LoadBinary(source *BinarySource, symbol string, period time.Duration, from, to time.Time) (*Series, error) {
	entryCount, err := source.EntryCount()
	if err != nil {
		return nil, fmt.Errorf("error getting entry count: %w", err)
	}
	if entryCount == 0 {
		return nil, fmt.Errorf("data source is empty")
	}

	fromNano := from.UnixNano()
	toNano := to.UnixNano()

	var record BinaryBar

	low := int64(0)
	high := entryCount - 1
	for low <= high {
		mid := (low + high) / 2
		if err := source.Read(mid, &record); err != nil {
			return nil, fmt.Errorf("error reading entry at index %d: %w", mid, err)
		}
		if record.CloseTime < fromNano {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	if low >= entryCount {
		return nil, fmt.Errorf("no entry found with close time >= from")
	}

	var bars []common.Bar
	for idx := low; idx < entryCount; idx++ {
		if err := source.Read(idx, &record); err != nil {
			return nil, fmt.Errorf("error reading entry at index %d: %w", idx, err)
		}
		if record.CloseTime > toNano {
			break
		}
		var bar common.Bar
		record.toBar(&bar)
		bar.Source = binaryReaderComponentName
		bar.Symbol = symbol
		bar.Period = period
		bars = append(bars, bar)
	}
	return NewSeries(symbol, period, bars)
}

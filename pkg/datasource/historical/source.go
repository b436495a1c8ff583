package historical

import (
	"fmt"
	"io"
	"sync"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/imemo88/nautilus-trader/pkg/datasource"
)

// Source is a read only memory mapped array of fixed size records of type T.
type Source[T any] struct {
	dataSourceName string
	reader         *mmap.ReaderAt
	entrySize      int64
	bufferPool     *sync.Pool
}

func NewSource[T any](dataSourceName string) *Source[T] {
	entrySize := int(unsafe.Sizeof(*new(T)))
	return &Source[T]{
		dataSourceName: dataSourceName,
		entrySize:      int64(entrySize),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, entrySize)
				return &buffer
			},
		},
	}
}

func (s *Source[T]) Open() error {
	if s.entrySize == 0 {
		return fmt.Errorf("unable to open data source %q: record size is zero", s.dataSourceName)
	}

	reader, err := mmap.Open(s.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open data source %q: %w", s.dataSourceName, err)
	}
	if int64(reader.Len())%s.entrySize != 0 {
		_ = reader.Close()
		return fmt.Errorf("data source %q size %d is not a multiple of record size %d", s.dataSourceName, reader.Len(), s.entrySize)
	}

	s.reader = reader
	return nil
}

func (s *Source[T]) Close() error {
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	return err
}

func (s *Source[T]) Read(index int64, data *T) error {
	if index < 0 || index >= s.EntryCount() {
		return datasource.ErrEndOfData
	}

	buffer := s.bufferPool.Get().(*[]byte)
	defer s.bufferPool.Put(buffer)

	n, err := s.reader.ReadAt(*buffer, index*s.entrySize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("unable to read record %d of %q: %w", index, s.dataSourceName, err)
	}
	if n < len(*buffer) {
		return datasource.ErrEndOfData
	}

	*data = *(*T)(unsafe.Pointer(&(*buffer)[0])) // #nosec G103
	return nil
}

func (s *Source[T]) EntryCount() int64 {
	if s.reader == nil {
		return 0
	}
	return int64(s.reader.Len()) / s.entrySize
}

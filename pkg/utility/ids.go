package utility

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ExecutionID identifies one run of the process. Every event stamped during the run carries it.
type ExecutionID = uuid.UUID

// TraceID is a time ordered 64 bit identifier: 41 bits of milliseconds since 2024-01-01,
// 10 bits of machine id and 13 bits of sequence.
type TraceID = uint64

// RequestID correlates a data request with its response.
type RequestID = uuid.UUID

const (
	machineBits  = 10
	sequenceBits = 13

	maxSequence = 1<<sequenceBits - 1
	maxMachine  = 1<<machineBits - 1

	timestampShift = machineBits + sequenceBits
	machineShift   = sequenceBits
)

var (
	executionID   ExecutionID
	executionOnce sync.Once
	executionMu   sync.RWMutex

	sequence  atomic.Uint64
	machineID = uint64(uuid.New().ID()) & maxMachine
	epoch     = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
)

func GetExecutionID() ExecutionID {
	executionOnce.Do(func() {
		executionID = uuid.Must(uuid.NewV7())
	})

	executionMu.RLock()
	defer executionMu.RUnlock()
	return executionID
}

// ResetExecutionID starts a new run, used when an engine is restarted inside the same process.
func ResetExecutionID() ExecutionID {
	GetExecutionID()

	executionMu.Lock()
	defer executionMu.Unlock()
	executionID = uuid.Must(uuid.NewV7())
	return executionID
}

func CreateTraceID() TraceID {
	seq := sequence.Add(1) & maxSequence
	if seq == 0 {
		// sequence wrapped inside the same millisecond
		time.Sleep(time.Millisecond)
	}
	timestamp := uint64(time.Now().UnixMilli() - epoch)

	return (timestamp << timestampShift) | (machineID << machineShift) | seq
}

func ParseTraceID(id TraceID) (timestamp time.Time, machine uint64, seq uint64) {
	seq = id & maxSequence
	machine = (id >> machineShift) & maxMachine
	timestamp = time.UnixMilli(epoch + int64(id>>timestampShift))
	return
}

func NewRequestID() RequestID {
	return uuid.New()
}

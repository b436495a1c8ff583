package bus

import (
	"fmt"
	"strings"
	"time"

	"github.com/imemo88/nautilus-trader/pkg/common"
)

// Kind selects the payload of an Event and, together with the key, the topic it is routed on.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindTick
	KindBar
	KindInstrument
	KindStatus
)

var kindNames = []string{
	KindUndefined:  "UNDEFINED",
	KindTick:       "TICK",
	KindBar:        "BAR",
	KindInstrument: "INSTRUMENT",
	KindStatus:     "STATUS",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func ParseKind(name string) (Kind, error) {
	name = strings.ToUpper(name)
	for i, n := range kindNames {
		if i > 0 && n == name {
			return Kind(i), nil
		}
	}
	return KindUndefined, fmt.Errorf("unknown event kind %q", name)
}

// Event is the unit carried from venue clients to subscribers. Key is the symbol for
// ticks and instruments, the bar type string for bars and the client id for status.
type Event struct {
	Kind      Kind
	Key       string
	Data      any
	TimeStamp time.Time
}

func NewTickEvent(tick common.Tick) Event {
	return Event{Kind: KindTick, Key: tick.Symbol, Data: tick, TimeStamp: tick.TimeStamp}
}

func NewBarEvent(bar common.Bar) Event {
	return Event{Kind: KindBar, Key: bar.Type.String(), Data: bar, TimeStamp: bar.TimeStamp}
}

func NewInstrumentEvent(inst common.Instrument) Event {
	return Event{Kind: KindInstrument, Key: inst.Symbol, Data: inst, TimeStamp: inst.TimeStamp}
}

func NewStatusEvent(clientId string, status ConnectionStatus, err error) Event {
	return Event{
		Kind:      KindStatus,
		Key:       clientId,
		Data:      Status{ClientId: clientId, Status: status, Err: err},
		TimeStamp: time.Now().UTC(),
	}
}

func (e Event) Tick() (common.Tick, bool) {
	t, ok := e.Data.(common.Tick)
	return t, ok
}

func (e Event) Bar() (common.Bar, bool) {
	b, ok := e.Data.(common.Bar)
	return b, ok
}

func (e Event) Instrument() (common.Instrument, bool) {
	i, ok := e.Data.(common.Instrument)
	return i, ok
}

func (e Event) Status() (Status, bool) {
	s, ok := e.Data.(Status)
	return s, ok
}

func (e Event) String() string {
	return e.Kind.String() + " " + e.Key
}

type ConnectionStatus uint8

const (
	ConnectionStatusDisconnected ConnectionStatus = iota
	ConnectionStatusConnecting
	ConnectionStatusConnected
	ConnectionStatusFailed
)

var connectionStatusNames = []string{
	ConnectionStatusDisconnected: "DISCONNECTED",
	ConnectionStatusConnecting:   "CONNECTING",
	ConnectionStatusConnected:    "CONNECTED",
	ConnectionStatusFailed:       "FAILED",
}

func (s ConnectionStatus) String() string {
	if int(s) < len(connectionStatusNames) {
		return connectionStatusNames[s]
	}
	return fmt.Sprintf("ConnectionStatus(%d)", s)
}

// Status reports a connection transition of a venue client.
type Status struct {
	ClientId string
	Status   ConnectionStatus
	Err      error
}

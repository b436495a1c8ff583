package engine

import (
	"fmt"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/utility"
)

// Request asks the client of the key's venue for history. Kind is KindTick with a symbol
// key or KindBar with a bar type key.
type Request struct {
	Id     utility.RequestID
	Kind   bus.Kind
	Key    string
	Window datasource.Window
}

func NewTickRequest(symbol string, w datasource.Window) Request {
	return Request{Id: utility.NewRequestID(), Kind: bus.KindTick, Key: symbol, Window: w}
}

func NewBarRequest(barType common.BarType, w datasource.Window) Request {
	return Request{Id: utility.NewRequestID(), Kind: bus.KindBar, Key: barType.String(), Window: w}
}

type Response struct {
	RequestId utility.RequestID
	Ticks     []common.Tick
	Bars      []common.Bar
	Err       error
}

type ResponseHandler func(Response)

func (r Request) validate() error {
	if r.Kind != bus.KindTick && r.Kind != bus.KindBar {
		return fmt.Errorf("%w: cannot request %s", ErrInvalidTopic, r.Kind)
	}
	_, err := topicSymbol(r.Kind, r.Key)
	return err
}

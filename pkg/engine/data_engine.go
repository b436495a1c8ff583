package engine

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/tools/bar"
)

type Topic = datasource.Topic

// DataEngine owns the subscription table, the client registry and the routing of events
// to subscribers. It is not safe for concurrent mutation: a single goroutine subscribes,
// registers and routes. When an owner is set, mutations must carry it in their context.
// The caches and counters may be read from any goroutine.
type DataEngine struct {
	logger *zap.Logger

	owner      OwnerID
	checkOwner bool

	subscriptions map[Topic][]bus.Subscriber
	clients       map[string]datasource.Client
	aggregators   map[string][]*bar.Aggregator
	completed     []common.Bar

	cacheMu     sync.RWMutex
	instruments map[string]common.Instrument
	lastTicks   map[string]common.Tick
	lastBars    map[string]common.Bar

	routed          atomic.Uint64
	delivered       atomic.Uint64
	dropped         atomic.Uint64
	handlerFailures atomic.Uint64
}

func NewDataEngine(logger *zap.Logger) *DataEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataEngine{
		logger:        logger,
		subscriptions: make(map[Topic][]bus.Subscriber),
		clients:       make(map[string]datasource.Client),
		aggregators:   make(map[string][]*bar.Aggregator),
		instruments:   make(map[string]common.Instrument),
		lastTicks:     make(map[string]common.Tick),
		lastBars:      make(map[string]common.Bar),
	}
}

// SetOwner restricts mutations to contexts created by WithOwner(ctx, id). With check
// false the restriction is recorded but not enforced.
func (e *DataEngine) SetOwner(id OwnerID, check bool) {
	e.owner = id
	e.checkOwner = check
}

func (e *DataEngine) assertOwner(ctx context.Context) error {
	if e.owner == 0 || !e.checkOwner {
		return nil
	}
	if id, ok := ownerOf(ctx); ok && id == e.owner {
		return nil
	}
	return ErrWrongContext
}

// Subscribe appends sub to the handlers of (kind, key). The first subscriber of a topic
// asks the client of its venue to subscribe, internal bar types are aggregated from
// ticks instead.
func (e *DataEngine) Subscribe(ctx context.Context, kind bus.Kind, key string, sub bus.Subscriber) error {
	if err := e.assertOwner(ctx); err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("%w: nil subscriber", ErrInvalidTopic)
	}
	symbol, err := topicSymbol(kind, key)
	if err != nil {
		return err
	}

	topic := Topic{Kind: kind, Key: key}
	subs := e.subscriptions[topic]
	if indexOf(subs, sub.Id()) >= 0 {
		return fmt.Errorf("%w: %s on %s %s", ErrAlreadySubscribed, sub.Id(), kind, key)
	}

	if len(subs) == 0 {
		if err := e.activate(ctx, topic, symbol); err != nil {
			return err
		}
	}

	// copy on write, Route may be iterating the previous slice
	e.subscriptions[topic] = append(slices.Clip(subs), sub)
	e.logger.Debug("subscribed", zap.Stringer("kind", kind), zap.String("key", key), zap.String("subscriber", sub.Id()))
	return nil
}

func (e *DataEngine) Unsubscribe(ctx context.Context, kind bus.Kind, key string, sub bus.Subscriber) error {
	if err := e.assertOwner(ctx); err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("%w: nil subscriber", ErrInvalidTopic)
	}

	topic := Topic{Kind: kind, Key: key}
	subs := e.subscriptions[topic]
	idx := indexOf(subs, sub.Id())
	if idx < 0 {
		return fmt.Errorf("%w: %s on %s %s", ErrNotSubscribed, sub.Id(), kind, key)
	}

	if len(subs) == 1 {
		delete(e.subscriptions, topic)
		symbol, _ := topicSymbol(kind, key)
		e.deactivate(ctx, topic, symbol)
	} else {
		e.subscriptions[topic] = slices.Concat(subs[:idx], subs[idx+1:])
	}
	e.logger.Debug("unsubscribed", zap.Stringer("kind", kind), zap.String("key", key), zap.String("subscriber", sub.Id()))
	return nil
}

// Subscribers returns the handlers of a topic in subscription order.
func (e *DataEngine) Subscribers(kind bus.Kind, key string) []bus.Subscriber {
	return slices.Clone(e.subscriptions[Topic{Kind: kind, Key: key}])
}

// Topics returns the subscribed topics ordered by kind and key.
func (e *DataEngine) Topics() []Topic {
	out := make([]Topic, 0, len(e.subscriptions))
	for t := range e.subscriptions {
		out = append(out, t)
	}
	sortTopics(out)
	return out
}

// RegisterClient adds client under its id and subscribes it to the topics of its venue
// that already have subscribers. The client should be connected.
func (e *DataEngine) RegisterClient(ctx context.Context, client datasource.Client) error {
	if err := e.assertOwner(ctx); err != nil {
		return err
	}
	id := client.Id()
	if _, ok := e.clients[id]; ok {
		return fmt.Errorf("%w: %s", ErrClientExists, id)
	}
	e.clients[id] = client
	e.logger.Info("client registered", zap.String("client", id))

	for _, t := range e.Topics() {
		if topic, ok := e.venueTopic(t, id); ok {
			if err := client.Subscribe(ctx, topic.Kind, topic.Key); err != nil {
				e.logger.Warn("unable to subscribe client", zap.String("client", id), zap.Stringer("kind", topic.Kind), zap.String("key", topic.Key), zap.Error(err))
			}
		}
	}
	return nil
}

// DeregisterClient removes the client and returns it. Subscriptions stay in the table and
// are handed to the next client registered for the venue.
func (e *DataEngine) DeregisterClient(ctx context.Context, clientId string) (datasource.Client, error) {
	if err := e.assertOwner(ctx); err != nil {
		return nil, err
	}
	client, ok := e.clients[clientId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClient, clientId)
	}
	delete(e.clients, clientId)
	e.logger.Info("client deregistered", zap.String("client", clientId))
	return client, nil
}

func (e *DataEngine) Client(venue string) (datasource.Client, bool) {
	c, ok := e.clients[venue]
	return c, ok
}

// Clients returns the registered clients ordered by id.
func (e *DataEngine) Clients() []datasource.Client {
	out := make([]datasource.Client, 0, len(e.clients))
	for _, c := range e.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id() < out[j].Id() })
	return out
}

// Route invokes every subscriber of the event's topic once, in subscription order.
// Handler errors and panics are logged, counted and never stop the remaining handlers.
// An event without subscribers is dropped and counted. It leaves the caches untouched.
// Ticks feeding an internal bar aggregator count as subscribed.
func (e *DataEngine) Route(ctx context.Context, ev bus.Event) {
	if s, ok := ev.Status(); ok {
		e.logger.Info("client status", zap.String("client", s.ClientId), zap.Stringer("status", s.Status), zap.Error(s.Err))
	}

	subs := e.subscriptions[Topic{Kind: ev.Kind, Key: ev.Key}]
	aggregated := ev.Kind == bus.KindTick && len(e.aggregators[ev.Key]) > 0
	if len(subs) == 0 && !aggregated {
		e.dropped.Add(1)
		e.logger.Debug("event dropped", zap.Stringer("event", ev))
		return
	}

	e.cache(ev)
	if len(subs) > 0 {
		e.routed.Add(1)
		for _, sub := range subs {
			e.deliver(ctx, sub, ev)
		}
	}
	if aggregated {
		e.aggregate(ctx, ev)
	}
}

// Request fetches history from the client of the request's venue. It blocks on the
// client and is meant to run outside the routing goroutine.
func (e *DataEngine) Request(ctx context.Context, req Request) Response {
	client, err := e.requestClient(req)
	if err != nil {
		return Response{RequestId: req.Id, Err: err}
	}
	return fetch(ctx, client, req)
}

func (e *DataEngine) Instrument(symbol string) (common.Instrument, bool) {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()
	i, ok := e.instruments[symbol]
	return i, ok
}

// Instruments returns the cached instruments ordered by symbol.
func (e *DataEngine) Instruments() []common.Instrument {
	e.cacheMu.RLock()
	out := make([]common.Instrument, 0, len(e.instruments))
	for _, i := range e.instruments {
		out = append(out, i)
	}
	e.cacheMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (e *DataEngine) LastTick(symbol string) (common.Tick, bool) {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()
	t, ok := e.lastTicks[symbol]
	return t, ok
}

func (e *DataEngine) LastBar(barType common.BarType) (common.Bar, bool) {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()
	b, ok := e.lastBars[barType.String()]
	return b, ok
}

// Statistics returns the routing counters. Queue and post fields are zero.
func (e *DataEngine) Statistics() bus.Statistics {
	return bus.Statistics{
		Routed:          e.routed.Load(),
		Delivered:       e.delivered.Load(),
		Dropped:         e.dropped.Load(),
		HandlerFailures: e.handlerFailures.Load(),
	}
}

func (e *DataEngine) deliver(ctx context.Context, sub bus.Subscriber, ev bus.Event) {
	defer func() {
		if r := recover(); r != nil {
			e.handlerFailures.Add(1)
			e.logger.Error("subscriber panicked",
				zap.String("subscriber", sub.Id()),
				zap.Stringer("event", ev),
				zap.Any("panic", r),
				zap.StackSkip("stack", 2))
		}
	}()

	if err := sub.OnEvent(ctx, ev); err != nil {
		e.handlerFailures.Add(1)
		e.logger.Warn("subscriber failed",
			zap.String("subscriber", sub.Id()),
			zap.Stringer("event", ev),
			zap.Error(err))
		return
	}
	e.delivered.Add(1)
}

func (e *DataEngine) cache(ev bus.Event) {
	switch ev.Kind {
	case bus.KindTick:
		if t, ok := ev.Tick(); ok {
			e.cacheMu.Lock()
			e.lastTicks[t.Symbol] = t
			e.cacheMu.Unlock()
		}
	case bus.KindBar:
		if b, ok := ev.Bar(); ok {
			e.cacheMu.Lock()
			e.lastBars[ev.Key] = b
			e.cacheMu.Unlock()
		}
	case bus.KindInstrument:
		if i, ok := ev.Instrument(); ok {
			e.cacheMu.Lock()
			if prev, ok := e.instruments[i.Symbol]; !ok || !i.TimeStamp.Before(prev.TimeStamp) {
				e.instruments[i.Symbol] = i
			}
			e.cacheMu.Unlock()
		}
	}
}

func (e *DataEngine) aggregate(ctx context.Context, ev bus.Event) {
	aggregators := e.aggregators[ev.Key]
	if len(aggregators) == 0 {
		return
	}
	tick, ok := ev.Tick()
	if !ok {
		return
	}

	for _, a := range aggregators {
		a.OnTick(tick)
	}

	completed := e.completed
	e.completed = nil
	for _, b := range completed {
		e.Route(ctx, bus.NewBarEvent(b))
	}
}

func (e *DataEngine) activate(ctx context.Context, topic Topic, symbol string) error {
	if topic.Kind == bus.KindBar {
		barType, _ := common.ParseBarType(topic.Key)
		if barType.Internal {
			a, err := bar.NewAggregator(barType, func(b common.Bar) { e.completed = append(e.completed, b) })
			if err != nil {
				return err
			}
			if !e.ticksNeeded(symbol) {
				if err := e.clientSubscribe(ctx, bus.KindTick, symbol, symbol); err != nil {
					return err
				}
			}
			e.aggregators[symbol] = append(e.aggregators[symbol], a)
			return nil
		}
	}
	if topic.Kind == bus.KindTick && len(e.aggregators[symbol]) > 0 {
		return nil
	}
	return e.clientSubscribe(ctx, topic.Kind, topic.Key, symbol)
}

func (e *DataEngine) deactivate(ctx context.Context, topic Topic, symbol string) {
	if topic.Kind == bus.KindBar {
		barType, _ := common.ParseBarType(topic.Key)
		if barType.Internal {
			e.aggregators[symbol] = slices.DeleteFunc(e.aggregators[symbol], func(a *bar.Aggregator) bool {
				return a.BarType() == barType
			})
			if len(e.aggregators[symbol]) == 0 {
				delete(e.aggregators, symbol)
			}
			if !e.ticksNeeded(symbol) {
				e.clientUnsubscribe(ctx, bus.KindTick, symbol, symbol)
			}
			return
		}
	}
	if topic.Kind == bus.KindTick && e.ticksNeeded(symbol) {
		return
	}
	e.clientUnsubscribe(ctx, topic.Kind, topic.Key, symbol)
}

// ticksNeeded reports whether the ticks of symbol have a subscriber or feed an aggregator.
func (e *DataEngine) ticksNeeded(symbol string) bool {
	return len(e.subscriptions[Topic{Kind: bus.KindTick, Key: symbol}]) > 0 || len(e.aggregators[symbol]) > 0
}

// clientSubscribe forwards to the client of the venue of symbol. A missing client is not
// an error, it subscribes when it registers.
func (e *DataEngine) clientSubscribe(ctx context.Context, kind bus.Kind, key, symbol string) error {
	if kind == bus.KindStatus {
		return nil
	}
	client, ok := e.clients[common.Venue(symbol)]
	if !ok {
		return nil
	}
	if err := client.Subscribe(ctx, kind, key); err != nil {
		return fmt.Errorf("client %s unable to subscribe %s %s: %w", client.Id(), kind, key, err)
	}
	return nil
}

func (e *DataEngine) clientUnsubscribe(ctx context.Context, kind bus.Kind, key, symbol string) {
	if kind == bus.KindStatus {
		return
	}
	client, ok := e.clients[common.Venue(symbol)]
	if !ok {
		return
	}
	if err := client.Unsubscribe(ctx, kind, key); err != nil {
		e.logger.Warn("unable to unsubscribe client", zap.String("client", client.Id()), zap.Stringer("kind", kind), zap.String("key", key), zap.Error(err))
	}
}

// venueTopic maps a table topic to what the client of venue must subscribe, if anything.
func (e *DataEngine) venueTopic(t Topic, venue string) (Topic, bool) {
	symbol, err := topicSymbol(t.Kind, t.Key)
	if err != nil || t.Kind == bus.KindStatus || common.Venue(symbol) != venue {
		return Topic{}, false
	}
	if t.Kind == bus.KindBar {
		if barType, _ := common.ParseBarType(t.Key); barType.Internal {
			if len(e.subscriptions[Topic{Kind: bus.KindTick, Key: symbol}]) > 0 {
				return Topic{}, false
			}
			return Topic{Kind: bus.KindTick, Key: symbol}, true
		}
	}
	return t, true
}

func (e *DataEngine) requestClient(req Request) (datasource.Client, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	symbol, _ := topicSymbol(req.Kind, req.Key)
	client, ok := e.clients[common.Venue(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoClient, common.Venue(symbol))
	}
	return client, nil
}

func fetch(ctx context.Context, client datasource.Client, req Request) Response {
	resp := Response{RequestId: req.Id}
	switch req.Kind {
	case bus.KindTick:
		resp.Ticks, resp.Err = client.RequestTicks(ctx, req.Key, req.Window)
	case bus.KindBar:
		barType, err := common.ParseBarType(req.Key)
		if err != nil {
			resp.Err = err
			break
		}
		resp.Bars, resp.Err = client.RequestBars(ctx, barType, req.Window)
	}
	return resp
}

// topicSymbol validates a topic and returns the symbol it belongs to. Status topics are
// keyed by client id and belong to no symbol.
func topicSymbol(kind bus.Kind, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidTopic)
	}
	switch kind {
	case bus.KindTick, bus.KindInstrument:
		return key, nil
	case bus.KindBar:
		barType, err := common.ParseBarType(key)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidTopic, err)
		}
		return barType.Symbol, nil
	case bus.KindStatus:
		return "", nil
	}
	return "", fmt.Errorf("%w: kind %s", ErrInvalidTopic, kind)
}

func indexOf(subs []bus.Subscriber, id string) int {
	return slices.IndexFunc(subs, func(s bus.Subscriber) bool { return s.Id() == id })
}

func sortTopics(topics []Topic) {
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Kind != topics[j].Kind {
			return topics[i].Kind < topics[j].Kind
		}
		return topics[i].Key < topics[j].Key
	})
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
)

const (
	DefaultDataQueueSize    = 10000
	DefaultMessageQueueSize = 1000

	disconnectTimeout = 5 * time.Second
)

const (
	stateIdle int32 = iota
	stateRunning
	stateStopped
)

type Config struct {
	DataQueueSize    int
	MessageQueueSize int
	// CheckOwner rejects DataEngine mutations made outside the dispatch goroutine.
	CheckOwner bool
}

// LiveDataEngine runs a DataEngine on a single dispatch goroutine fed by two bounded
// queues. Commands on the message queue are taken before data whenever both are ready.
// Enqueueing through the public API never blocks: a full queue returns ErrQueueFull.
// Client pumps block instead, so adapters get backpressure rather than loss.
type LiveDataEngine struct {
	logger *zap.Logger
	data   *DataEngine
	owner  OwnerID

	events   chan bus.Event
	messages chan command

	state    atomic.Int32
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// sendMu is read-held from the state check through the send. Shutdown write-locks
	// it once after storing stateStopped, so no accepted send lands after the drain.
	sendMu sync.RWMutex

	pumps   map[string]context.CancelFunc
	pumpsWg sync.WaitGroup

	requestCtx    context.Context
	requestCancel context.CancelFunc
	requests      sync.WaitGroup

	startTime atomic.Int64
	runTime   atomic.Int64
	postCount atomic.Uint64
	postFails atomic.Uint64
}

func NewLiveDataEngine(cfg Config, logger *zap.Logger) *LiveDataEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DataQueueSize <= 0 {
		cfg.DataQueueSize = DefaultDataQueueSize
	}
	if cfg.MessageQueueSize <= 0 {
		cfg.MessageQueueSize = DefaultMessageQueueSize
	}

	e := &LiveDataEngine{
		logger:   logger,
		data:     NewDataEngine(logger),
		owner:    newOwnerID(),
		events:   make(chan bus.Event, cfg.DataQueueSize),
		messages: make(chan command, cfg.MessageQueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		pumps:    make(map[string]context.CancelFunc),
	}
	e.data.SetOwner(e.owner, cfg.CheckOwner)
	e.requestCtx, e.requestCancel = context.WithCancel(context.Background())
	return e
}

// Data gives access to the caches and, from handlers, to direct table mutation.
func (e *LiveDataEngine) Data() *DataEngine { return e.data }

// Start launches the dispatch goroutine. It returns at once, calling it again is a no-op.
// Cancelling ctx stops the engine like Stop.
func (e *LiveDataEngine) Start(ctx context.Context) error {
	if !e.state.CompareAndSwap(stateIdle, stateRunning) {
		if e.state.Load() == stateStopped {
			return ErrNotRunning
		}
		return nil
	}
	e.startTime.Store(time.Now().UnixNano())
	e.logger.Info("engine started",
		zap.Int("data_queue_capacity", cap(e.events)),
		zap.Int("message_queue_capacity", cap(e.messages)))

	go e.run(WithOwner(ctx, e.owner))
	return nil
}

// Stop signals the dispatch goroutine and returns without waiting, so it is safe to call
// from a handler. Done is closed once the queues are drained.
func (e *LiveDataEngine) Stop() {
	if e.state.CompareAndSwap(stateIdle, stateStopped) {
		e.fence()
		e.signalStop()
		e.logger.Info("engine stopped before start",
			zap.Int("discarded_messages", len(e.messages)),
			zap.Int("discarded_events", len(e.events)))
		close(e.done)
		return
	}
	e.signalStop()
}

func (e *LiveDataEngine) Done() <-chan struct{} { return e.done }

func (e *LiveDataEngine) IsRunning() bool { return e.state.Load() == stateRunning }

func (e *LiveDataEngine) DataQueueLen() int         { return len(e.events) }
func (e *LiveDataEngine) MessageQueueLen() int      { return len(e.messages) }
func (e *LiveDataEngine) DataQueueCapacity() int    { return cap(e.events) }
func (e *LiveDataEngine) MessageQueueCapacity() int { return cap(e.messages) }

// Post enqueues an event for routing.
func (e *LiveDataEngine) Post(ev bus.Event) error {
	e.sendMu.RLock()
	defer e.sendMu.RUnlock()
	if e.state.Load() == stateStopped {
		return ErrNotRunning
	}
	select {
	case e.events <- ev:
		e.postCount.Add(1)
		return nil
	default:
		e.postFails.Add(1)
		return fmt.Errorf("%w: data queue at %d", ErrQueueFull, cap(e.events))
	}
}

func (e *LiveDataEngine) Subscribe(kind bus.Kind, key string, sub bus.Subscriber) error {
	if sub == nil {
		return fmt.Errorf("%w: nil subscriber", ErrInvalidTopic)
	}
	return e.enqueue(subscribeCommand{kind: kind, key: key, sub: sub})
}

func (e *LiveDataEngine) Unsubscribe(kind bus.Kind, key string, sub bus.Subscriber) error {
	if sub == nil {
		return fmt.Errorf("%w: nil subscriber", ErrInvalidTopic)
	}
	return e.enqueue(unsubscribeCommand{kind: kind, key: key, sub: sub})
}

// RegisterClient connects client on the calling goroutine and queues its registration.
// Once registered its events are pumped into the data queue. A client whose registration
// cannot be queued is disconnected again.
func (e *LiveDataEngine) RegisterClient(ctx context.Context, client datasource.Client) error {
	if e.state.Load() == stateStopped {
		return ErrNotRunning
	}
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("unable to connect client %s: %w", client.Id(), err)
	}
	if err := e.enqueue(registerCommand{client: client}); err != nil {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		if derr := client.Disconnect(dctx); derr != nil {
			err = errors.Join(err, fmt.Errorf("unable to disconnect client %s: %w", client.Id(), derr))
		}
		return err
	}
	return nil
}

// DeregisterClient queues the removal of the client, which is then disconnected.
func (e *LiveDataEngine) DeregisterClient(clientId string) error {
	return e.enqueue(deregisterCommand{clientId: clientId})
}

// Request queues a history request. handler runs on the dispatch goroutine.
func (e *LiveDataEngine) Request(req Request, handler ResponseHandler) error {
	if err := req.validate(); err != nil {
		return err
	}
	return e.enqueue(requestCommand{req: req, handler: handler})
}

func (e *LiveDataEngine) Statistics() bus.Statistics {
	stats := e.data.Statistics()
	stats.PostCount = e.postCount.Load()
	stats.PostFails = e.postFails.Load()
	stats.DataQueueLen = len(e.events)
	stats.MessageQueueLen = len(e.messages)
	stats.RunTime = time.Duration(e.runTime.Load())
	if e.IsRunning() {
		stats.RunTime = time.Since(time.Unix(0, e.startTime.Load()))
	}
	return stats
}

func (e *LiveDataEngine) enqueue(cmd command) error {
	e.sendMu.RLock()
	defer e.sendMu.RUnlock()
	if e.state.Load() == stateStopped {
		return ErrNotRunning
	}
	select {
	case e.messages <- cmd:
		e.postCount.Add(1)
		return nil
	default:
		e.postFails.Add(1)
		return fmt.Errorf("%w: message queue at %d", ErrQueueFull, cap(e.messages))
	}
}

func (e *LiveDataEngine) run(ctx context.Context) {
	defer close(e.done)

	for {
		select {
		case cmd := <-e.messages:
			cmd.execute(ctx, e)
			continue
		default:
		}

		select {
		case <-e.stop:
			e.shutdown(ctx)
			return
		case <-ctx.Done():
			e.shutdown(context.WithoutCancel(ctx))
			return
		case cmd := <-e.messages:
			cmd.execute(ctx, e)
		case ev := <-e.events:
			e.data.Route(ctx, ev)
		}
	}
}

// shutdown stops pumps and requests, routes everything still queued, then disconnects
// the registered clients.
func (e *LiveDataEngine) shutdown(ctx context.Context) {
	e.state.Store(stateStopped)
	e.fence()
	e.signalStop()

	for id := range e.pumps {
		e.stopPump(id)
	}
	e.pumpsWg.Wait()
	e.requestCancel()
	e.requests.Wait()

	var messages, events int
	for {
		select {
		case cmd := <-e.messages:
			cmd.execute(ctx, e)
			messages++
			continue
		default:
		}
		select {
		case cmd := <-e.messages:
			cmd.execute(ctx, e)
			messages++
			continue
		case ev := <-e.events:
			e.data.Route(ctx, ev)
			events++
			continue
		default:
		}
		break
	}

	for _, client := range e.data.Clients() {
		e.disconnect(client)
	}

	e.runTime.Store(int64(time.Since(time.Unix(0, e.startTime.Load()))))
	e.logger.Info("engine stopped", zap.Int("drained_messages", messages), zap.Int("drained_events", events))
	e.Statistics().Print(e.logger)
}

// fence waits out every Post and enqueue that saw the engine before it stopped.
func (e *LiveDataEngine) fence() {
	e.sendMu.Lock()
	e.sendMu.Unlock()
}

func (e *LiveDataEngine) signalStop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

func (e *LiveDataEngine) startPump(client datasource.Client) {
	if e.state.Load() == stateStopped {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.pumps[client.Id()] = cancel

	e.pumpsWg.Add(1)
	go func() {
		defer e.pumpsWg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-client.Events():
				if !ok {
					return
				}
				select {
				case e.events <- ev:
					e.postCount.Add(1)
				case <-ctx.Done():
					e.logger.Warn("event discarded, pump stopping", zap.String("client", client.Id()), zap.Stringer("event", ev))
					return
				}
			}
		}
	}()
}

func (e *LiveDataEngine) stopPump(clientId string) {
	if cancel, ok := e.pumps[clientId]; ok {
		cancel()
		delete(e.pumps, clientId)
	}
}

func (e *LiveDataEngine) disconnect(client datasource.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		e.logger.Warn("unable to disconnect client", zap.String("client", client.Id()), zap.Error(err))
	}
}

func (e *LiveDataEngine) respond(handler ResponseHandler, resp Response) {
	if handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("response handler panicked", zap.Stringer("request", resp.RequestId), zap.Any("panic", r))
		}
	}()
	handler(resp)
}

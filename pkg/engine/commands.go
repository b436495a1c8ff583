package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
)

// command is a message queue item, executed on the dispatch goroutine.
type command interface {
	execute(ctx context.Context, e *LiveDataEngine)
}

type subscribeCommand struct {
	kind bus.Kind
	key  string
	sub  bus.Subscriber
}

func (c subscribeCommand) execute(ctx context.Context, e *LiveDataEngine) {
	if err := e.data.Subscribe(ctx, c.kind, c.key, c.sub); err != nil {
		e.logger.Warn("subscribe failed", zap.Stringer("kind", c.kind), zap.String("key", c.key), zap.String("subscriber", c.sub.Id()), zap.Error(err))
	}
}

type unsubscribeCommand struct {
	kind bus.Kind
	key  string
	sub  bus.Subscriber
}

func (c unsubscribeCommand) execute(ctx context.Context, e *LiveDataEngine) {
	if err := e.data.Unsubscribe(ctx, c.kind, c.key, c.sub); err != nil {
		e.logger.Warn("unsubscribe failed", zap.Stringer("kind", c.kind), zap.String("key", c.key), zap.String("subscriber", c.sub.Id()), zap.Error(err))
	}
}

type registerCommand struct {
	client datasource.Client
}

func (c registerCommand) execute(ctx context.Context, e *LiveDataEngine) {
	if err := e.data.RegisterClient(ctx, c.client); err != nil {
		e.logger.Warn("register failed", zap.String("client", c.client.Id()), zap.Error(err))
		return
	}
	e.startPump(c.client)
}

type deregisterCommand struct {
	clientId string
}

func (c deregisterCommand) execute(ctx context.Context, e *LiveDataEngine) {
	client, err := e.data.DeregisterClient(ctx, c.clientId)
	if err != nil {
		e.logger.Warn("deregister failed", zap.String("client", c.clientId), zap.Error(err))
		return
	}
	e.stopPump(c.clientId)
	e.disconnect(client)
}

// requestCommand resolves the client on the dispatch goroutine and fetches in the
// background, the response comes back through the message queue.
type requestCommand struct {
	req     Request
	handler ResponseHandler
}

func (c requestCommand) execute(_ context.Context, e *LiveDataEngine) {
	if e.state.Load() == stateStopped {
		e.respond(c.handler, Response{RequestId: c.req.Id, Err: ErrNotRunning})
		return
	}
	client, err := e.data.requestClient(c.req)
	if err != nil {
		e.respond(c.handler, Response{RequestId: c.req.Id, Err: err})
		return
	}

	e.requests.Add(1)
	go func() {
		defer e.requests.Done()

		resp := fetch(e.requestCtx, client, c.req)
		select {
		case e.messages <- responseCommand{resp: resp, handler: c.handler}:
			e.postCount.Add(1)
		case <-e.stop:
			e.logger.Warn("response discarded, engine stopping", zap.Stringer("request", resp.RequestId))
		}
	}()
}

type responseCommand struct {
	resp    Response
	handler ResponseHandler
}

func (c responseCommand) execute(_ context.Context, e *LiveDataEngine) {
	e.respond(c.handler, c.resp)
}

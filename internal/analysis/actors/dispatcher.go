package actors

import (
	"fmt"
	"reflect"

	"github.com/asynkron/protoactor-go/actor"

	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/messages"
)

type handlerFunc func(s *entity.Session, msg messages.SessionMessage) (any, error)

// Dispatcher 按请求的具体类型找处理函数。
type Dispatcher struct {
	handlers map[reflect.Type]handlerFunc
}

func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[reflect.Type]handlerFunc),
	}
	d.registerAll()
	return d
}

func (d *Dispatcher) registerAll() {
	register(d, handleStatus)
	register(d, handleProduction)
	register(d, handlePopulation)
	register(d, handlePopNeeds)
	register(d, handleEnemies)
	register(d, handleExport)
}

// register 要求 Req 是指针类型的会话消息。
func register[Req messages.SessionMessage, Rep any](d *Dispatcher, fn func(s *entity.Session, req Req) (Rep, error)) {
	reqType := reflect.TypeOf((*Req)(nil)).Elem()
	if reqType.Kind() != reflect.Ptr {
		panic("dispatcher req type must be pointer message")
	}
	d.handlers[reqType] = func(s *entity.Session, msg messages.SessionMessage) (any, error) {
		return fn(s, msg.(Req))
	}
}

// Dispatch 处理一条请求并回复；处理函数 panic 时回复 Failure，不让 actor 重启丢掉会话。
func (d *Dispatcher) Dispatch(ctx actor.Context, s *entity.Session, msg messages.SessionMessage) {
	h, ok := d.handlers[reflect.TypeOf(msg)]
	if !ok {
		ctx.Respond(&messages.Failure{Err: fmt.Errorf("%w: %T", entity.ErrUnsupportedMessage, msg)})
		return
	}
	ctx.Respond(d.call(h, s, msg))
}

func (d *Dispatcher) call(h handlerFunc, s *entity.Session, msg messages.SessionMessage) (reply any) {
	defer func() {
		if r := recover(); r != nil {
			reply = &messages.Failure{Err: fmt.Errorf("session %s: %T panicked: %v", s.ID(), msg, r)}
		}
	}()
	rep, err := h(s, msg)
	if err != nil {
		return &messages.Failure{Err: err}
	}
	return rep
}

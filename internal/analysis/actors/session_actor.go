package actors

import (
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/messages"
)

type State int

const (
	None State = iota
	Online
	Stopping
)

// SessionActor 独占一份解码后的存档，所有查询在它的邮箱里串行执行。
// idle>0 时超过 idle 没有请求就自行停止，由管理者回收。
type SessionActor struct {
	state      State
	session    *entity.Session
	idle       time.Duration
	dispatcher *Dispatcher
}

func NewSessionActor(s *entity.Session, idle time.Duration, d *Dispatcher) *SessionActor {
	if d == nil {
		d = NewDispatcher()
	}
	return &SessionActor{
		state:      None,
		session:    s,
		idle:       idle,
		dispatcher: d,
	}
}

func (a *SessionActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.state = Online
		if a.idle > 0 {
			ctx.SetReceiveTimeout(a.idle)
		}
	case *actor.ReceiveTimeout:
		ctx.Logger().Info("session idle, stopping", "session_id", a.session.ID())
		ctx.Stop(ctx.Self())
	case *actor.Stopping:
		a.state = Stopping
	case *actor.Stopped:
		// 释放存档树，PID 可能还被未完成的 future 引用
		a.session = nil
	case messages.SessionMessage:
		if a.state != Online || a.session == nil {
			ctx.Respond(&messages.Failure{Err: entity.ErrSessionNotFound})
			return
		}
		a.dispatcher.Dispatch(ctx, a.session, msg)
	}
}

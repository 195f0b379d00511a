package actors

import (
	"sort"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/messages"
)

type sessionEntry struct {
	pid    *actor.PID
	status entity.LoadStatus
}

// ManagerActor 只做路由和登记：开会话时 spawn 子 actor，其余会话请求 Forward 给子 actor。
type ManagerActor struct {
	maxSessions int
	idle        time.Duration
	dispatcher  *Dispatcher
	sessions    map[entity.SessionID]sessionEntry
}

func NewManagerActor(maxSessions int, idle time.Duration) *ManagerActor {
	return &ManagerActor{
		maxSessions: maxSessions,
		idle:        idle,
		dispatcher:  NewDispatcher(),
		sessions:    make(map[entity.SessionID]sessionEntry),
	}
}

func (m *ManagerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *messages.OpenSession:
		m.open(ctx, msg)
	case *messages.CloseSession:
		m.close(ctx, msg)
	case *messages.ListSessions:
		ctx.Respond(&messages.ListReply{Sessions: m.list()})
	case *actor.Terminated:
		m.forget(msg.Who)
	case messages.SessionMessage:
		e, ok := m.sessions[msg.SessionID()]
		if !ok {
			ctx.Respond(&messages.Failure{Err: entity.ErrSessionNotFound})
			return
		}
		ctx.Forward(e.pid)
	}
}

func (m *ManagerActor) open(ctx actor.Context, msg *messages.OpenSession) {
	if msg.Session == nil {
		ctx.Respond(&messages.Failure{Err: entity.ErrUnsupportedMessage})
		return
	}
	id := msg.Session.ID()
	if _, ok := m.sessions[id]; ok {
		ctx.Respond(&messages.Failure{Err: entity.ErrSessionExists})
		return
	}
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		ctx.Respond(&messages.Failure{Err: entity.ErrTooManySessions})
		return
	}

	s := msg.Session
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewSessionActor(s, m.idle, m.dispatcher)
	})
	// 子 actor 停止时管理者会收到 Terminated
	pid := ctx.Spawn(props)
	m.sessions[id] = sessionEntry{pid: pid, status: s.Status()}
	ctx.Respond(&messages.OpenReply{Status: s.Status()})
}

func (m *ManagerActor) close(ctx actor.Context, msg *messages.CloseSession) {
	e, ok := m.sessions[msg.SessionID()]
	if !ok {
		ctx.Respond(&messages.Failure{Err: entity.ErrSessionNotFound})
		return
	}
	delete(m.sessions, msg.SessionID())
	ctx.Stop(e.pid)
	ctx.Respond(&messages.CloseReply{})
}

func (m *ManagerActor) forget(pid *actor.PID) {
	for id, e := range m.sessions {
		if pid != nil && e.pid.Id == pid.Id && e.pid.Address == pid.Address {
			delete(m.sessions, id)
			return
		}
	}
}

// list 按开始时间排序，时间相同按 id。
func (m *ManagerActor) list() []entity.LoadStatus {
	out := make([]entity.LoadStatus, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, e.status)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

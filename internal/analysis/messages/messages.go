// Package messages 定义发给会话 actor 的请求与回复。
// 管理者按 SessionID 转发，会话 actor 在自己的邮箱里串行处理，所以同一份存档上的查询不会并发。
package messages

import (
	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/economy"
)

// SessionMessage 是需要转发给某个会话 actor 的请求。
type SessionMessage interface {
	SessionID() entity.SessionID
}

type SessionBase struct {
	Session entity.SessionID
}

func (b SessionBase) SessionID() entity.SessionID {
	return b.Session
}

// Failure 是 actor 处理失败时的统一回复。
type Failure struct {
	Err error
}

// 管理者消息

type OpenSession struct {
	Session *entity.Session
}

type OpenReply struct {
	Status entity.LoadStatus
}

type CloseSession struct {
	SessionBase
}

type CloseReply struct{}

type ListSessions struct{}

type ListReply struct {
	Sessions []entity.LoadStatus
}

// 会话消息

type StatusRequest struct {
	SessionBase
}

type StatusReply struct {
	Status entity.LoadStatus
}

type ProductionRequest struct {
	SessionBase
	Query economy.Query
}

type ProductionReply struct {
	Result *economy.ProductionResult
}

type PopulationRequest struct {
	SessionBase
	Countries []string
}

type PopulationReply struct {
	Totals []economy.PopTotal
}

type PopNeedsRequest struct {
	SessionBase
	Query economy.PopNeedsQuery
}

type PopNeedsReply struct {
	Needs []economy.PopTotal
}

type EnemiesRequest struct {
	SessionBase
	Country string
}

type EnemiesReply struct {
	Country string
	Enemies []string
}

type ExportRequest struct {
	SessionBase
}

type ExportReply struct {
	JSON []byte
}

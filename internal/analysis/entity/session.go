package entity

import (
	"time"

	"Vic2Economy/internal/economy"
	"Vic2Economy/internal/pdx"
)

// SessionID 标识一份已解码的存档。
type SessionID = string

// LoadStatus 记录一次存档加载：文件名、大小、耗时和两个阶段最终的进度。
type LoadStatus struct {
	SessionID    SessionID     `json:"session_id"`
	FileName     string        `json:"file_name"`
	Bytes        int64         `json:"bytes"`
	Encoding     string        `json:"encoding"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	ReadPercent  float64       `json:"read_percent"`
	ParsePercent float64       `json:"parse_percent"`
	Provinces    int           `json:"provinces"`
}

// Track 记录一次进度回调的最新百分比。
func (s *LoadStatus) Track(p pdx.Progress) {
	switch p.Phase {
	case pdx.PhaseRead:
		s.ReadPercent = p.Percent
	case pdx.PhaseParse:
		s.ParsePercent = p.Percent
	}
}

// Complete 两个阶段都到 100 才算加载完成。
func (s LoadStatus) Complete() bool {
	return s.ReadPercent >= 100 && s.ParsePercent >= 100
}

// Session 是一份解码后的存档及其 World，只在所属 actor 内访问。
type Session struct {
	status LoadStatus
	save   *pdx.Node
	world  *economy.World
}

func NewSession(status LoadStatus, save *pdx.Node, world *economy.World) *Session {
	if world != nil {
		status.Provinces = len(world.Provinces())
	}
	return &Session{status: status, save: save, world: world}
}

func (s *Session) ID() SessionID         { return s.status.SessionID }
func (s *Session) Status() LoadStatus    { return s.status }
func (s *Session) Save() *pdx.Node       { return s.save }
func (s *Session) World() *economy.World { return s.world }

package port

import (
	"context"

	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/messages"
)

// Sessions 托管已解码的存档。Ask 把请求交给对应会话串行处理并等待回复。
type Sessions interface {
	Open(ctx context.Context, s *entity.Session) error
	Close(ctx context.Context, id entity.SessionID) error
	List(ctx context.Context) ([]entity.LoadStatus, error)
	Ask(ctx context.Context, msg messages.SessionMessage) (any, error)
}

package port

import (
	"context"

	"Vic2Economy/internal/analysis/entity"
)

// ReportRepository 是查询报告的持久化端口，Get 找不到时返回 entity.ErrReportNotFound。
type ReportRepository interface {
	Save(ctx context.Context, r *entity.Report) error
	Get(ctx context.Context, id string) (*entity.Report, error)
	ListBySession(ctx context.Context, sessionID entity.SessionID) ([]*entity.Report, error)
}

// ReportStore 在仓储之上加了异步写：Put 立即可读，落库在后台完成。
type ReportStore interface {
	Put(r *entity.Report)
	Get(ctx context.Context, id string) (*entity.Report, error)
	ListBySession(ctx context.Context, sessionID entity.SessionID) ([]*entity.Report, error)
}

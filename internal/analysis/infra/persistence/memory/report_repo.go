package memory

import (
	"context"
	"sort"
	"sync"

	"Vic2Economy/internal/analysis/entity"
)

// ReportRepo 把报告放在进程内存里，重启即丢，用于 storage.driver=memory 和测试。
type ReportRepo struct {
	mu      sync.RWMutex
	reports map[string]*entity.Report
}

func NewReportRepo() *ReportRepo {
	return &ReportRepo{reports: make(map[string]*entity.Report)}
}

func (r *ReportRepo) Save(ctx context.Context, rep *entity.Report) error {
	_ = ctx
	if rep == nil {
		return nil
	}
	r.mu.Lock()
	r.reports[rep.ID] = rep.Clone()
	r.mu.Unlock()
	return nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (*entity.Report, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rep, ok := r.reports[id]
	if !ok {
		return nil, entity.ErrReportNotFound
	}
	return rep.Clone(), nil
}

func (r *ReportRepo) ListBySession(ctx context.Context, sessionID entity.SessionID) ([]*entity.Report, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]*entity.Report, 0)
	for _, rep := range r.reports {
		if rep.SessionID == sessionID {
			out = append(out, rep.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

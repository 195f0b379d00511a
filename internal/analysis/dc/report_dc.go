package dc

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"Vic2Economy/internal/analysis/app/port"
	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/modules/kit/logx"
)

const (
	defaultFlushEvery = 3000 * time.Millisecond
	writeTimeout      = 5 * time.Second
)

// ReportDC 是报告的写后缓存：Put 之后立即可读，落库由后台写协程完成。
// 写库失败的报告留在 pending 里，等下一次唤醒或定时器再试。
type ReportDC struct {
	repo       port.ReportRepository
	log        logx.Logger
	flushEvery time.Duration

	mu      sync.Mutex
	pending map[string]*entity.Report
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewReportDC(repo port.ReportRepository, flushEvery time.Duration, l logx.Logger) *ReportDC {
	if flushEvery <= 0 {
		flushEvery = defaultFlushEvery
	}
	if l == nil {
		l = logx.Nop()
	}
	d := &ReportDC{
		repo:       repo,
		log:        l,
		flushEvery: flushEvery,
		pending:    make(map[string]*entity.Report),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go d.writerLoop()
	return d
}

// Put 入队一份报告，同 id 的旧快照被覆盖；关闭后的 Put 被忽略。
func (d *ReportDC) Put(r *entity.Report) {
	if r == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.pending[r.ID] = r.Clone()
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *ReportDC) Get(ctx context.Context, id string) (*entity.Report, error) {
	d.mu.Lock()
	r, ok := d.pending[id]
	d.mu.Unlock()
	if ok {
		return r.Clone(), nil
	}
	return d.repo.Get(ctx, id)
}

// ListBySession 合并已落库和仍在 pending 的报告，按创建时间排序。
func (d *ReportDC) ListBySession(ctx context.Context, sessionID entity.SessionID) ([]*entity.Report, error) {
	stored, err := d.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Report, len(stored))
	for _, r := range stored {
		byID[r.ID] = r
	}
	d.mu.Lock()
	for id, r := range d.pending {
		if r.SessionID == sessionID {
			byID[id] = r.Clone()
		}
	}
	d.mu.Unlock()

	out := make([]*entity.Report, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sortReports(out)
	return out, nil
}

// Pending 返回尚未落库的报告数。
func (d *ReportDC) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *ReportDC) FlushEvery() time.Duration {
	return d.flushEvery
}

// Close 停止接收新报告并等待写协程把 pending 写完。
func (d *ReportDC) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *ReportDC) writerLoop() {
	defer close(d.done)

	ticker := time.NewTicker(d.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-d.wake:
			d.consumePending()
		case <-ticker.C:
			d.consumePending()
		case <-d.stop:
			// 关闭时每份报告最多再写一次，失败的记日志后丢弃
			d.consumePending()
			d.dropPending()
			return
		}
	}
}

// snapshot 按创建时间取出当前 pending，不移除；写成功后才 ack。
func (d *ReportDC) snapshot() []*entity.Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*entity.Report, 0, len(d.pending))
	for _, r := range d.pending {
		out = append(out, r)
	}
	sortReports(out)
	return out
}

func (d *ReportDC) consumePending() {
	for _, r := range d.snapshot() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := d.repo.Save(ctx, r)
		cancel()
		if err != nil {
			d.log.Warn("report write-behind failed", zap.String("report_id", r.ID), zap.Error(err))
			continue
		}
		d.ack(r)
	}
}

func (d *ReportDC) ack(r *entity.Report) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// 写库期间被同 id 的新快照覆盖时保留新快照
	if cur, ok := d.pending[r.ID]; ok && cur == r {
		delete(d.pending, r.ID)
	}
}

func (d *ReportDC) dropPending() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.pending {
		d.log.Error("report dropped on close", zap.String("report_id", id))
		delete(d.pending, id)
	}
}

func sortReports(rs []*entity.Report) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}

package dc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Vic2Economy/internal/analysis/entity"
)

type fakeRepo struct {
	mu      sync.Mutex
	saved   map[string]*entity.Report
	failFor int
	calls   int
	saveCh  chan string
}

func newFakeRepo(failFor int) *fakeRepo {
	return &fakeRepo{saved: map[string]*entity.Report{}, failFor: failFor, saveCh: make(chan string, 16)}
}

func (f *fakeRepo) Save(ctx context.Context, r *entity.Report) error {
	f.mu.Lock()
	f.calls++
	if f.calls <= f.failFor {
		f.mu.Unlock()
		return errors.New("db down")
	}
	f.saved[r.ID] = r.Clone()
	f.mu.Unlock()
	f.saveCh <- r.ID
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.saved[id]
	if !ok {
		return nil, entity.ErrReportNotFound
	}
	return r.Clone(), nil
}

func (f *fakeRepo) ListBySession(ctx context.Context, sessionID entity.SessionID) ([]*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Report
	for _, r := range f.saved {
		if r.SessionID == sessionID {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func report(id string, sid entity.SessionID, at time.Time) *entity.Report {
	return &entity.Report{ID: id, SessionID: sid, Kind: entity.ReportProduction, Result: []byte(`{}`), CreatedAt: at}
}

func waitSaved(t *testing.T, repo *fakeRepo, id string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-repo.saveCh:
			if got == id {
				return
			}
		case <-deadline:
			t.Fatalf("等待报告 %s 落库超时", id)
		}
	}
}

func TestReportDC_Put后立即可读并异步落库(t *testing.T) {
	repo := newFakeRepo(0)
	d := NewReportDC(repo, time.Hour, nil)
	defer d.Close(context.Background())

	d.Put(report("r1", "s1", time.Now()))
	got, err := d.Get(context.Background(), "r1")
	if err != nil || got.ID != "r1" {
		t.Fatalf("期望 Put 后立即可读, got=%v err=%v", got, err)
	}
	waitSaved(t, repo, "r1")
	if _, err := repo.Get(context.Background(), "r1"); err != nil {
		t.Fatalf("期望报告已写入仓储, err=%v", err)
	}
}

func TestReportDC_写库失败后定时重试(t *testing.T) {
	repo := newFakeRepo(2)
	d := NewReportDC(repo, 20*time.Millisecond, nil)
	defer d.Close(context.Background())

	d.Put(report("r1", "s1", time.Now()))
	waitSaved(t, repo, "r1")
	if d.Pending() != 0 {
		t.Fatalf("期望重试成功后 pending 清空, got=%d", d.Pending())
	}
}

func TestReportDC_列表合并pending并按时间排序(t *testing.T) {
	repo := newFakeRepo(0)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.saved["old"] = report("old", "s1", base)
	repo.saved["other"] = report("other", "s2", base)

	d := NewReportDC(repo, time.Hour, nil)
	defer d.Close(context.Background())
	d.Put(report("new", "s1", base.Add(time.Minute)))

	list, err := d.ListBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ListBySession err=%v", err)
	}
	if len(list) != 2 || list[0].ID != "old" || list[1].ID != "new" {
		t.Fatalf("期望 [old new], got=%v", list)
	}
}

func TestReportDC_关闭时写完pending(t *testing.T) {
	repo := newFakeRepo(0)
	d := NewReportDC(repo, time.Hour, nil)
	d.Put(report("r1", "s1", time.Now()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close err=%v", err)
	}
	if _, err := repo.Get(context.Background(), "r1"); err != nil {
		t.Fatalf("期望关闭前落库, err=%v", err)
	}
	d.Put(report("r2", "s1", time.Now()))
	if d.Pending() != 0 {
		t.Fatalf("期望关闭后 Put 被忽略")
	}
}

func TestReportDC_找不到时透传仓储错误(t *testing.T) {
	d := NewReportDC(newFakeRepo(0), time.Hour, nil)
	defer d.Close(context.Background())
	if _, err := d.Get(context.Background(), "nope"); !errors.Is(err, entity.ErrReportNotFound) {
		t.Fatalf("期望 ErrReportNotFound, got=%v", err)
	}
}

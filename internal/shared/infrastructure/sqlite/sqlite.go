package sqlite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"Vic2Economy/internal/shared/serverconfig"
	"Vic2Economy/modules/kit/logx"
)

var ErrEmptyPath = errors.New("sqlite path is empty")

// Open 打开（必要时创建）sqlite 文件，开启 WAL 和外键。path 为 ":memory:" 时是进程内数据库。
func Open(cfg serverconfig.SQLiteConfig, l logx.Logger) (*sqlx.DB, error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}
	if l == nil {
		l = logx.Nop()
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// modernc sqlite 单写者，连接数放开会在 WAL 下排队等锁
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	l.Info("open sqlite success", zap.String("path", cfg.Path))
	return db, nil
}

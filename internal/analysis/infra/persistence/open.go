package persistence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"Vic2Economy/internal/analysis/app/port"
	"Vic2Economy/internal/analysis/infra/persistence/memory"
	"Vic2Economy/internal/analysis/infra/persistence/mongodb"
	"Vic2Economy/internal/analysis/infra/persistence/mysql"
	"Vic2Economy/internal/analysis/infra/persistence/sqlite"
	"Vic2Economy/internal/shared/infrastructure/db"
	"Vic2Economy/internal/shared/infrastructure/mongo"
	sqliteinfra "Vic2Economy/internal/shared/infrastructure/sqlite"
	"Vic2Economy/internal/shared/serverconfig"
	"Vic2Economy/modules/kit/logx"
)

// OpenReportRepo 按 storage.driver 打开报告仓储，并完成建表/建索引。
// 返回的 closer 释放底层连接，memory 驱动时为空操作。
func OpenReportRepo(cfg serverconfig.StorageConfig, l logx.Logger) (port.ReportRepository, func(), error) {
	if l == nil {
		l = logx.Nop()
	}
	switch cfg.Driver {
	case "", serverconfig.StorageMemory:
		return memory.NewReportRepo(), func() {}, nil

	case serverconfig.StorageMongoDB:
		client, database, err := mongo.Open(cfg.MongoDB, l)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongodb: %w", err)
		}
		closer := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		repo := mongodb.NewReportRepo(database)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(ctx); err != nil {
			closer()
			return nil, nil, err
		}
		return repo, closer, nil

	case serverconfig.StorageMySQL:
		gdb, err := db.Open(cfg.MySQL, l)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		closer := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		repo := mysql.NewReportRepo(gdb)
		if err := repo.Migrate(); err != nil {
			closer()
			return nil, nil, err
		}
		return repo, closer, nil

	case serverconfig.StorageSQLite:
		sdb, err := sqliteinfra.Open(cfg.SQLite, l)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo, err := sqlite.NewReportRepo(sdb)
		if err != nil {
			_ = sdb.Close()
			return nil, nil, err
		}
		return repo, func() { _ = sdb.Close() }, nil
	}

	l.Error("unknown storage driver", zap.String("driver", cfg.Driver))
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

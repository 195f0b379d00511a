package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"Vic2Economy/internal/shared/serverconfig"
	"Vic2Economy/modules/kit/logx"
)

var ErrEmptyURI = errors.New("mongodb uri is empty")

const defaultDatabase = "vic2"

// Open 连接并 ping 一次，返回配置中的数据库（未配置时用 vic2）。
func Open(cfg serverconfig.MongoDBConfig, l logx.Logger) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		return nil, nil, ErrEmptyURI
	}
	if l == nil {
		l = logx.Nop()
	}

	timeout := time.Duration(cfg.ConnectTimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	name := cfg.Database
	if name == "" {
		name = defaultDatabase
	}
	l.Info("open mongodb success",
		zap.String("database", name),
	)
	return client, client.Database(name), nil
}

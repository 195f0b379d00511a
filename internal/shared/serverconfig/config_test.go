package serverconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_回填默认值(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := filepath.Join(t.TempDir(), "conf.yml")
	body := `
auth:
  jwt_secret: dev-secret
query:
  overseas_penalty: 0
decode:
  encoding: windows-1252
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	conf, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if conf.Storage.Driver != StorageMemory || conf.Query.AskTimeout != DefaultAskTimeout {
		t.Fatalf("期望回填默认值, got=%+v", conf)
	}
	if conf.Query.Penalty() != 0 {
		t.Fatalf("期望显式配置的 0 惩罚不被默认值覆盖, got=%v", conf.Query.Penalty())
	}
	if os.Getenv("JWT_SECRET") != "dev-secret" {
		t.Fatalf("期望回填 JWT_SECRET 环境变量")
	}
	if Current() != conf {
		t.Fatalf("期望 Current 返回最近加载的配置")
	}
}

func TestQueryConfig_未设置惩罚时用默认值(t *testing.T) {
	if got := (QueryConfig{}).Penalty(); got != DefaultOverseasPenalty {
		t.Fatalf("期望默认 0.25, got=%v", got)
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Vic2Economy/internal/economy/economytest"
	"Vic2Economy/internal/shared/security"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExport_按文件名嵌套或合并(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", `x = 1 shared = a`)
	b := writeFile(t, dir, "b.txt", `y = { 1 2 } shared = b`)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"export", a, b}, &out); err != nil {
		t.Fatalf("export err=%v", err)
	}
	var nested map[string]map[string]any
	if err := json.Unmarshal(out.Bytes(), &nested); err != nil {
		t.Fatalf("期望输出 JSON, err=%v body=%s", err, out.String())
	}
	if nested["a"]["x"] != "1" || nested["b"]["shared"] != "b" {
		t.Fatalf("期望每个文件挂在文件名下, got=%v", nested)
	}

	dst := filepath.Join(dir, "merged.json")
	if err := run(context.Background(), []string{"export", "--merge", "-o", dst, a, b}, &out); err != nil {
		t.Fatalf("export --merge err=%v", err)
	}
	raw, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	var merged map[string]any
	_ = json.Unmarshal(raw, &merged)
	if merged["x"] != "1" || merged["shared"] != "b" || merged["y"] == nil {
		t.Fatalf("期望合并顶层字段且后者覆盖, got=%v", merged)
	}
}

func TestRun_参数错误(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), nil, &out); !errors.Is(err, errUsage) {
		t.Fatalf("期望无参数时返回用法错误, got=%v", err)
	}
	if err := run(context.Background(), []string{"export"}, &out); !errors.Is(err, errUsage) {
		t.Fatalf("期望 export 无文件时返回用法错误, got=%v", err)
	}
	if err := run(context.Background(), []string{"import"}, &out); !errors.Is(err, errUsage) {
		t.Fatalf("期望未知子命令返回用法错误, got=%v", err)
	}
	if !strings.Contains(out.String(), "vic2 query") {
		t.Fatalf("期望打印用法")
	}
}

func TestQuery_执行计划并落库(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "production.txt", economytest.Production)
	writeFile(t, dir, "terrain.txt", economytest.Terrain)
	writeFile(t, dir, "terrain_map.txt", economytest.TerrainMap)
	writeFile(t, dir, "continent.txt", economytest.Continents)
	writeFile(t, dir, "region.txt", economytest.Regions)
	writeFile(t, dir, "adjacency.txt", economytest.Adjacency)
	writeFile(t, dir, "pop_types.txt", economytest.PopTypes)
	writeFile(t, dir, "defines.txt", economytest.Defines)
	writeFile(t, dir, "bundle.yml", `
datasets:
  production: production.txt
  terrain: terrain.txt
  terrain_map: terrain_map.txt
  continents: continent.txt
  region: region.txt
  adjacency_map: adjacency.txt
  pop_types: pop_types.txt
  defines: defines.txt
`)
	writeFile(t, dir, "london.v2", economytest.Save)
	plan := writeFile(t, dir, "plan.hcl", `
save   = "london.v2"
bundle = "bundle.yml"

query "cotton" {
  countries = ["ENG"]
  goods     = ["cotton"]
}

store {
  driver = "sqlite"
  path   = "out/reports.db"
}
`)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"query", "--plan", plan}, &out); err != nil {
		t.Fatalf("query err=%v", err)
	}
	if !strings.Contains(out.String(), "cotton") || !strings.Contains(out.String(), "0.25") {
		t.Fatalf("期望表格里有棉花产出 0.25, got=\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "reports.db")); err != nil {
		t.Fatalf("期望报告落到 sqlite 文件, err=%v", err)
	}
}

func TestToken_签发可解析的令牌(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	var out bytes.Buffer
	if err := run(context.Background(), []string{"token", "--subject", "alice", "--scope", "analysis"}, &out); err != nil {
		t.Fatalf("token err=%v", err)
	}
	claims, err := security.ParseBearer("Bearer " + strings.TrimSpace(out.String()))
	if err != nil || claims.Subject != "alice" || !claims.Allows("analysis") {
		t.Fatalf("期望令牌可解析且带 scope, claims=%+v err=%v", claims, err)
	}
	if err := run(context.Background(), []string{"token"}, &out); !errors.Is(err, errUsage) {
		t.Fatalf("期望缺少 subject 时返回用法错误, got=%v", err)
	}
}

// Package queryplan 读取 CLI 使用的 HCL 查询计划：
//
//	save     = "saves/1836.v2"
//	bundle   = "data/bundle.yml"
//	encoding = "windows-1252"
//
//	query "british_cotton" {
//	  countries        = ["ENG"]
//	  goods            = ["cotton", "grain"]
//	  overseas_penalty = 0.25
//	}
//
//	store {
//	  driver = "sqlite"
//	  path   = "reports.db"
//	}
package queryplan

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"Vic2Economy/internal/economy"
)

var ErrInvalidPlan = errors.New("queryplan: invalid plan")

type Plan struct {
	Save     string  `hcl:"save"`
	Bundle   string  `hcl:"bundle,optional"`
	Encoding string  `hcl:"encoding,optional"`
	Queries  []Query `hcl:"query,block"`
	Store    *Store  `hcl:"store,block"`
}

type Query struct {
	Name            string   `hcl:"name,label"`
	Countries       []string `hcl:"countries"`
	Goods           []string `hcl:"goods"`
	OverseasPenalty *float64 `hcl:"overseas_penalty,optional"`
}

type Store struct {
	Driver string `hcl:"driver,optional"`
	Path   string `hcl:"path,optional"`
}

// Parse 解析内存中的计划文本。filename 只用于诊断信息。
func Parse(src []byte, filename string) (*Plan, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: parse %s: %s", ErrInvalidPlan, filename, diags.Error())
	}
	var p Plan
	if diags := gohcl.DecodeBody(file.Body, nil, &p); diags.HasErrors() {
		return nil, fmt.Errorf("%w: decode %s: %s", ErrInvalidPlan, filename, diags.Error())
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseFile 解析计划文件，相对路径按计划文件所在目录解析。
func ParseFile(path string) (*Plan, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: parse %s: %s", ErrInvalidPlan, path, diags.Error())
	}
	var p Plan
	if diags := gohcl.DecodeBody(file.Body, nil, &p); diags.HasErrors() {
		return nil, fmt.Errorf("%w: decode %s: %s", ErrInvalidPlan, path, diags.Error())
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	p.resolve(filepath.Dir(path))
	return &p, nil
}

func (p *Plan) validate() error {
	if p.Save == "" {
		return fmt.Errorf("%w: save is empty", ErrInvalidPlan)
	}
	if len(p.Queries) == 0 {
		return fmt.Errorf("%w: no query block", ErrInvalidPlan)
	}
	seen := make(map[string]bool, len(p.Queries))
	for _, q := range p.Queries {
		if seen[q.Name] {
			return fmt.Errorf("%w: duplicate query %q", ErrInvalidPlan, q.Name)
		}
		seen[q.Name] = true
		if len(q.Countries) == 0 || len(q.Goods) == 0 {
			return fmt.Errorf("%w: query %q needs countries and goods", ErrInvalidPlan, q.Name)
		}
	}
	if p.Store != nil && p.Store.Driver != "" && p.Store.Driver != "sqlite" && p.Store.Driver != "memory" {
		return fmt.Errorf("%w: unsupported store driver %q", ErrInvalidPlan, p.Store.Driver)
	}
	return nil
}

func (p *Plan) resolve(dir string) {
	abs := func(s string) string {
		if s == "" || filepath.IsAbs(s) {
			return s
		}
		return filepath.Join(dir, s)
	}
	p.Save = abs(p.Save)
	p.Bundle = abs(p.Bundle)
	if p.Store != nil {
		p.Store.Path = abs(p.Store.Path)
	}
}

// EconomyQuery 转成生产查询；未设置惩罚系数时用 defaultPenalty。
func (q Query) EconomyQuery(defaultPenalty float64) economy.Query {
	penalty := defaultPenalty
	if q.OverseasPenalty != nil {
		penalty = *q.OverseasPenalty
	}
	return economy.Query{Countries: q.Countries, Goods: q.Goods, OverseasPenalty: penalty}
}

package refdata

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"Vic2Economy/internal/pdx"
)

func decode(t *testing.T, text string) *pdx.Node {
	t.Helper()
	n, err := pdx.DecodeString(text)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return n
}

func TestBundle_地理索引(t *testing.T) {
	b := New(map[Dataset]*pdx.Node{
		Continents: decode(t, `
europe = { provinces = { 1 2 3 } farm_rgo_size = 0.1 }
asia = { provinces = { 3 4 } }
`),
		Regions: decode(t, `
ENG_1 = { 1 2 }
ENG_2 = { 3 }
ASI_1 = { 2 4 }
`),
		PortMap: decode(t, `1 = 1001
4 = 1004`),
	}, nil)

	if c, _ := b.ContinentOf("1"); c != "europe" {
		t.Fatalf("期望 1 属于 europe, got=%q", c)
	}
	if c, _ := b.ContinentOf("3"); c != "asia" {
		t.Fatalf("期望重复出现的省份以最后一个大洲为准, got=%q", c)
	}
	if i, ok := b.StateIndexOf("2"); !ok || i != 0 {
		t.Fatalf("期望 2 的州下标为第一个包含它的州 0, got=%d ok=%v", i, ok)
	}
	if i, _ := b.StateIndexOf("3"); i != 1 {
		t.Fatalf("期望 3 的州下标为 1, got=%d", i)
	}
	if _, ok := b.StateIndexOf("99"); ok {
		t.Fatalf("期望未定义的省份没有州下标")
	}
	if !b.IsPort("4") || b.IsPort("2") {
		t.Fatalf("期望港口表生效")
	}
	if z, _ := b.SeaZone("1"); z != "1001" {
		t.Fatalf("期望 1 的海区是 1001, got=%q", z)
	}
}

func TestBundle_查表(t *testing.T) {
	b := New(map[Dataset]*pdx.Node{
		Terrain:    decode(t, `categories = { plains = { farm_rgo_size = 0.5 } hills = { mine_rgo_size = 0.2 } }`),
		TerrainMap: decode(t, `1 = plains`),
		Crime:      decode(t, `banditism = { local_RGO_output = -0.1 } corruption = { local_RGO_output = -0.2 }`),
		NationalFocus: decode(t, `
rail = { railroad_focus = { local_RGO_output = 0.5 } }
pop = { clergy_focus = { local_RGO_output = 0.1 } railroad_focus = { local_RGO_output = 9 } }
`),
		Inventions: decode(t, `a = { x = 1 } b = { effect = { x = 2 } }`),
		PopTypes:   decode(t, `farmers = { life_needs = { grain = 1 } } aristocrats = { }`),
		Defines:    decode(t, `pops = { PDEF_BASE_CON = 20 }`),
	}, nil)

	if got := b.TerrainModifier("1", "farm_rgo_size"); got != 0.5 {
		t.Fatalf("期望地形修正 0.5, got=%v", got)
	}
	if got := b.Crime(1).Get("local_RGO_output").Float(); got != -0.2 {
		t.Fatalf("期望犯罪下标 1 对应 corruption, got=%v", got)
	}
	if b.Crime(5) != nil {
		t.Fatalf("期望越界的犯罪下标返回 nil")
	}
	if got := b.FocusValue("railroad_focus", "local_RGO_output"); got != 0.5 {
		t.Fatalf("期望取第一个包含该国策的组, got=%v", got)
	}
	if name, _, ok := b.Invention(1); !ok || name != "b" {
		t.Fatalf("期望发明下标 1 为 b, got=%q", name)
	}
	if got := b.PopTypeNames(); !reflect.DeepEqual(got, []string{"farmers", "aristocrats"}) {
		t.Fatalf("期望人口类型按定义顺序, got=%v", got)
	}
	if got := b.Define("pops", "PDEF_BASE_CON"); got != 20 {
		t.Fatalf("期望 define 20, got=%v", got)
	}
}

func TestBundle_缺失数据集(t *testing.T) {
	b := New(map[Dataset]*pdx.Node{Issues: pdx.NewObject()}, map[Dataset]string{Adjacencies: ""})
	if err := b.Require(Issues, Adjacencies); err != nil {
		t.Fatalf("期望已提供的数据集通过检查, got=%v", err)
	}
	if err := b.Require(Issues, Terrain); !errors.Is(err, ErrMissingDataset) {
		t.Fatalf("期望 ErrMissingDataset, got=%v", err)
	}
	if b.Modifier("nope", "x") != 0 {
		t.Fatalf("期望缺失的表按 0 处理")
	}
}

func TestParseStraits(t *testing.T) {
	text := "From;To;Type;Through;Data;Comment\n" +
		"# comment line\n" +
		"300;301;sea;3000;0;Dover\n" +
		"300;302;canal;;0;no through\n" +
		"310;311;sea;3100;0;\n"
	s, err := ParseStraits(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := s["300"]; len(got) != 1 || got[0] != (Connection{To: "301", Through: "3000"}) {
		t.Fatalf("期望 300 只有一条经由 3000 的捷径, got=%v", got)
	}
	if len(s["310"]) != 1 {
		t.Fatalf("期望 310 有一条捷径")
	}

	if _, err := ParseStraits("From;To;Type\n1;2;sea"); !errors.Is(err, ErrBadStraitTable) {
		t.Fatalf("期望缺少 Through 列时报 ErrBadStraitTable, got=%v", err)
	}
	if s, err := ParseStraits(""); err != nil || len(s) != 0 {
		t.Fatalf("期望空文本得到空表, got=%v err=%v", s, err)
	}
}

func TestFromJSON_保持顺序与形态(t *testing.T) {
	n, err := FromJSON([]byte(`{"b":1.5,"a":{"provinces":{"key":["1","2"]}},"flag":true,"gone":null}`))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if got := n.Keys(); !reflect.DeepEqual(got, []string{"b", "a", "flag"}) {
		t.Fatalf("期望 key 保持顺序且丢弃 null, got=%v", got)
	}
	if n.Get("b").Float() != 1.5 || n.Get("flag").String() != "true" {
		t.Fatalf("期望数字和布尔转为标量")
	}
	if got := n.Path("a", "provinces", "key").Strings(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("期望数组转为列表, got=%v", got)
	}
	if _, err := FromJSON([]byte(`{"a":`)); err == nil {
		t.Fatalf("期望非法 JSON 报错")
	}
}

func TestLoad_按清单读取(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("bundle.yml", `
root: data
datasets:
  modifiers: common/modifiers.json
  terrain: map/terrain.txt
  adjacencies: map/adjacencies.csv
`)
	write("data/common/modifiers.json", `{"has_siege":{"farm_rgo_eff":"-0.5"}}`)
	write("data/map/terrain.txt", "categories = {\n plains = { farm_rgo_size = 0.2 } # flat\n}\n")
	write("data/map/adjacencies.csv", "From;To;Through\n1;2;3\n")

	b, err := Load(filepath.Join(dir, "bundle.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.Modifier("has_siege", "farm_rgo_eff"); got != -0.5 {
		t.Fatalf("期望 JSON 数据集可查, got=%v", got)
	}
	if got := b.TerrainCategory("plains").Get("farm_rgo_size").Float(); got != 0.2 {
		t.Fatalf("期望原生格式数据集可查, got=%v", got)
	}
	if b.Text(Adjacencies) == "" {
		t.Fatalf("期望 CSV 数据集按文本保存")
	}

	write("broken.yml", "datasets: {}\n")
	if _, err := Load(filepath.Join(dir, "broken.yml")); !errors.Is(err, ErrBadManifest) {
		t.Fatalf("期望空清单报 ErrBadManifest, got=%v", err)
	}
	write("missing.yml", "datasets:\n  issues: nope.json\n")
	if _, err := Load(filepath.Join(dir, "missing.yml")); !errors.Is(err, ErrMissingDataset) {
		t.Fatalf("期望文件缺失报 ErrMissingDataset, got=%v", err)
	}
}

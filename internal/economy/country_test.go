package economy

import (
	"math"
	"reflect"
	"sort"
	"testing"
)

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestCountry_连通集合只含控制省份和首都(t *testing.T) {
	w := fixtureWorld(t, `
ENG = { capital = 1 }
FRA = { capital = 3 }
1 = { owner = ENG controller = FRA farmers = { size = 1 } }
2 = { owner = ENG controller = ENG farmers = { size = 1 } }
3 = { owner = ENG controller = FRA farmers = { size = 1 } }
4 = { owner = ENG controller = ENG farmers = { size = 1 } }
`)
	eng, err := w.Country("ENG")
	if err != nil {
		t.Fatalf("country: %v", err)
	}
	reach := eng.Reachable()
	if got := keys(reach); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("期望只到达首都 1 和控制的 2, got=%v", got)
	}
	for id := range reach {
		if id != eng.Capital() && !eng.Controls(id) {
			t.Fatalf("期望连通集合不含未控制的省份, got=%s", id)
		}
	}
	if eng.IsOverseas(eng.Capital()) {
		t.Fatalf("期望首都永远不算海外")
	}
	if eng.IsOverseas("4") {
		t.Fatalf("期望同一大洲的省份不算海外，即使不连通")
	}
}

func TestCountry_海峡与港口(t *testing.T) {
	save := `
ENG = { capital = 1 }
1 = { owner = ENG controller = ENG farmers = { size = 1 } }
2 = { owner = ENG controller = ENG farmers = { size = 1 } }
3 = { owner = ENG controller = ENG farmers = { size = 1 } }
4 = { owner = ENG controller = ENG farmers = { size = 1 } }
5 = { owner = ENG controller = ENG farmers = { size = 1 } }
6 = { owner = ENG controller = ENG farmers = { size = 1 } }
`
	w := fixtureWorld(t, save)
	eng, err := w.Country("ENG")
	if err != nil {
		t.Fatalf("country: %v", err)
	}
	if got := keys(eng.Reachable()); !reflect.DeepEqual(got, []string{"1", "2", "3", "4", "5", "6"}) {
		t.Fatalf("期望经 4-5 海峡连到非洲, got=%v", got)
	}
	if eng.IsOverseas("6") {
		t.Fatalf("期望可连通的非洲省份不算海外")
	}
	if got := eng.StraitLinks("5"); !reflect.DeepEqual(got, []string{"4"}) {
		t.Fatalf("期望海峡捷径双向, got=%v", got)
	}

	// 失去 4 号省份的控制后海峡断开，非洲变成海外，但 5 号港口仍能补给 6 号
	w = fixtureWorld(t, `
ENG = { capital = 1 }
1 = { owner = ENG controller = ENG farmers = { size = 1 } }
2 = { owner = ENG controller = ENG farmers = { size = 1 } }
3 = { owner = ENG controller = ENG farmers = { size = 1 } }
5 = { owner = ENG controller = ENG farmers = { size = 1 } }
6 = { owner = ENG controller = ENG farmers = { size = 1 } }
`)
	eng, _ = w.Country("ENG")
	b := w.Bundle()
	if !eng.IsOverseas("6") {
		t.Fatalf("期望海峡断开后 6 号是海外")
	}
	if port, ok := eng.ConnectedPort(b, "6"); !ok || port != "5" {
		t.Fatalf("期望 6 号经 5 号港口补给, got=%q ok=%v", port, ok)
	}
	if eng.IsBlockaded(b, "6") {
		t.Fatalf("期望有港口补给时不算封锁")
	}
	if port, _ := eng.ConnectedPort(b, "1"); port != "3" {
		t.Fatalf("期望按存档顺序取第一个可达港口, got=%q", port)
	}
}

func TestCountry_州内人口比例(t *testing.T) {
	w := fixtureWorld(t, `
ENG = { capital = 1 }
1 = { owner = ENG controller = ENG farmers = { size = 300 } aristocrats = { size = 100 } }
2 = { owner = ENG controller = ENG farmers = { size = 600 } }
3 = { owner = ENG controller = ENG }
`)
	eng, _ := w.Country("ENG")
	b := w.Bundle()
	if got := eng.PopsPercentageInState(b, "aristocrats", 0); got != 0.1 {
		t.Fatalf("期望贵族占 0.1, got=%v", got)
	}
	if got := eng.PopsPercentageInState(b, "aristocrats", 1); !math.IsNaN(got) {
		t.Fatalf("期望州内没有人口时结果为 NaN, got=%v", got)
	}
}

func TestCountry_科技发明按商品累加(t *testing.T) {
	b := fixtureBundle(t)
	c := NewRawCountry("ENG", node(t, `
technology = { mechanized_mining = { 1 0.000 } clean_coal = { 1 0.000 } }
active_inventions = { 2 1 }
`), b)
	if got := c.ModifierFromTechnology(b, ModGoodsOutput, "iron"); got != 0.1 {
		t.Fatalf("期望科技 iron 产出 0.1, got=%v", got)
	}
	if got := c.ModifierFromTechnology(b, ModRgoSize, "iron"); got != 0.25 {
		t.Fatalf("期望科技 iron 规模 0.25, got=%v", got)
	}
	// inv_c 直接 0.01 + effect 0.02，inv_b effect 0.3
	if got := c.ModifierFromInventions(b, ModGoodsOutput, "cotton"); math.Abs(got-0.33) > 1e-9 {
		t.Fatalf("期望发明 cotton 产出 0.33, got=%v", got)
	}
	if got := c.TechRgoSize(b, "iron"); got != 0.25 {
		t.Fatalf("期望 iron 规模只来自科技, got=%v", got)
	}
}

func TestCountry_改革立场(t *testing.T) {
	b := fixtureBundle(t)
	c := NewRawCountry("ENG", node(t, `economic_policy = interventionism slavery = no_slavery`), b)
	if got := c.RgoSize(Farm); got != 0.2 {
		t.Fatalf("期望 interventionism 的 farm_rgo_size 0.2, got=%v", got)
	}
	if got := c.RgoSize(Mine); got != 0 {
		t.Fatalf("期望 mine 规模 0, got=%v", got)
	}
	if got := c.RgoThroughputEff(); got != 0 {
		t.Fatalf("期望 no_slavery 不贡献吞吐, got=%v", got)
	}
}

func TestCountry_国策键去引号(t *testing.T) {
	b := fixtureBundle(t)
	c := NewRawCountry("ENG", node(t, `national_focus = { "1" = railroad_focus }`), b)
	if got := c.Focuses()["1"]; got != "railroad_focus" {
		t.Fatalf("期望国策键去掉引号, got=%v", c.Focuses())
	}
}

package economy

import (
	"errors"
	"math"
	"testing"
)

const popSave = `
ENG = { capital = 1 active_inventions = { 0 1 } }
FRA = { capital = 3 }
1 = { owner = ENG controller = ENG farmers = { size = 200000 con = 10 } farmers = { size = 100000 } aristocrats = { size = 500 } }
3 = { owner = FRA controller = FRA farmers = { size = 50000 } labourers = { size = 20000 } }
`

func TestWorld_PopulationTotals(t *testing.T) {
	w := fixtureWorld(t, popSave)

	totals := w.PopulationTotals([]string{"ENG"})
	want := map[string]float64{"aristocrats": 500, "farmers": 300000, "labourers": 0, "slaves": 0}
	if len(totals) != len(want) {
		t.Fatalf("期望每种人口类型一行, got=%v", totals)
	}
	for _, pt := range totals {
		if pt.Value != want[pt.PopType] {
			t.Fatalf("期望 %s=%v, got=%v", pt.PopType, want[pt.PopType], pt.Value)
		}
	}

	all := w.PopulationTotals(nil)
	if all[1].PopType != "farmers" || all[1].Value != 350000 {
		t.Fatalf("期望不选国家时统计全部省份, got=%v", all[1])
	}
}

func TestWorld_PopNeeds(t *testing.T) {
	w := fixtureWorld(t, popSave)
	needs, err := w.PopNeeds(PopNeedsQuery{Good: "grain", Countries: []string{"ENG"}, Plurality: 50})
	if err != nil {
		t.Fatalf("pop needs: %v", err)
	}

	// inv = 1 + 2*0.1 = 1.2；farmers 基础需求 1.5 + 1.2*1 = 2.7
	// 第一组：1.5 * (1 + 2*10/20) * 2.7 * 2 * 200000 / 200000 = 16.2
	// 第二组：1.5 * 1 * 2.7 * 2 * 100000 / 200000 = 4.05
	var farmers float64
	for _, n := range needs {
		if n.PopType == "farmers" {
			farmers = n.Value
		}
	}
	if math.Abs(farmers-20.25) > 1e-9 {
		t.Fatalf("期望 farmers 需求 20.25, got=%v", farmers)
	}

	zero := 0
	needs, err = w.PopNeeds(PopNeedsQuery{Good: "wine", Countries: []string{"ENG"}, Inventions: &zero})
	if err != nil {
		t.Fatalf("pop needs: %v", err)
	}
	// aristocrats 奢侈需求 2：1 * 1 * 2 * 2 * 500 / 200000
	if math.Abs(needs[0].Value-0.01) > 1e-12 {
		t.Fatalf("期望 aristocrats wine 需求 0.01, got=%v", needs[0].Value)
	}

	if _, err := w.PopNeeds(PopNeedsQuery{Good: "grain", Countries: []string{"XXX"}}); !errors.Is(err, ErrUnknownCountry) {
		t.Fatalf("期望 ErrUnknownCountry, got=%v", err)
	}
}

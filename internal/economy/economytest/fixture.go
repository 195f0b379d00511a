// Package economytest 提供跨包测试用的小型规则表和存档。
package economytest

import (
	"testing"

	"Vic2Economy/internal/economy"
	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/refdata"
)

// 规则表：1、2 号省份在欧洲，分属两个州；只有棉花一种农场产出。
const (
	Production = `
cotton_farm = { template = rgo_template_farmers output_goods = cotton value = 1 farm = yes }
rgo_template_farmers = {
	type = rgo
	employees = { { poptype = farmers effect = output amount = 1 } }
}
`
	Terrain    = `categories = { plains = { farm_rgo_size = 0 } }`
	TerrainMap = `1 = plains 2 = plains`
	Continents = `europe = { provinces = { 1 2 } }`
	Regions    = `ENG_1 = { 1 } FRA_1 = { 2 }`
	Adjacency  = `1 = { 2 } 2 = { 1 }`
	PopTypes   = `
aristocrats = { life_needs = { grain = 1 } }
farmers = { life_needs = { grain = 1.5 } everyday_needs = { grain = 1 } }
`
	Defines = `pops = { PDEF_BASE_CON = 20 INVENTION_IMPACT_ON_DEMAND = 0.1 BASE_GOODS_DEMAND = 2 }`
)

// Save 是两国存档：伦敦 40000 农民、10000 雇工，产出 0.25 棉花；英法交战。
const Save = `
date = "1836.1.1"
ENG = { capital = 1 }
FRA = { capital = 2 }
1 = {
	name = "London"
	owner = ENG
	controller = ENG
	farmers = { size = 40000 }
	rgo = {
		goods_type = cotton
		employment = { employees = { { count = 10000 } } }
	}
}
2 = {
	name = "Paris"
	owner = FRA
	controller = FRA
	farmers = { size = 20000 }
}
active_war = {
	name = "Anglo-French War"
	original_attacker = ENG
	original_defender = FRA
}
`

// EngCotton 是 Save 里英国的棉花产出。
const EngCotton = 0.25

func Node(t testing.TB, text string) *pdx.Node {
	t.Helper()
	n, err := pdx.DecodeString(text)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return n
}

func Bundle(t testing.TB) *refdata.Bundle {
	t.Helper()
	return refdata.New(map[refdata.Dataset]*pdx.Node{
		refdata.Production:   Node(t, Production),
		refdata.Terrain:      Node(t, Terrain),
		refdata.TerrainMap:   Node(t, TerrainMap),
		refdata.Continents:   Node(t, Continents),
		refdata.Regions:      Node(t, Regions),
		refdata.AdjacencyMap: Node(t, Adjacency),
		refdata.PopTypes:     Node(t, PopTypes),
		refdata.Defines:      Node(t, Defines),
	}, nil)
}

func World(t testing.TB) *economy.World {
	t.Helper()
	w, err := economy.NewWorld(Node(t, Save), Bundle(t))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

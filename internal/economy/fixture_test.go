package economy

import (
	"testing"

	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/refdata"
)

func node(t *testing.T, text string) *pdx.Node {
	t.Helper()
	n, err := pdx.DecodeString(text)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return n
}

// 规则表：欧洲 1~4 号省份，非洲 5~6 号省份；3、5 号是港口；4 与 5 之间有海峡。
const (
	fixtureProduction = `
cotton_farm = { template = rgo_template_farmers output_goods = cotton value = 1 farm = yes }
iron_mine = { template = rgo_template_labourers output_goods = iron value = 2 mine = yes }
rgo_template_farmers = {
	type = rgo
	employees = {
		{ poptype = farmers effect = output amount = 1 }
		{ poptype = slaves effect = output amount = 1 }
	}
}
rgo_template_labourers = {
	type = rgo
	employees = { { poptype = labourers effect = output amount = 1 } }
}
`
	fixtureTerrain = `
categories = {
	plains = { farm_rgo_size = 0 mine_rgo_size = 0 }
	hills = { farm_rgo_size = -0.2 mine_rgo_size = 0.5 }
}
`
	fixtureTerrainMap = `1 = plains 2 = plains 3 = plains 4 = hills 5 = plains 6 = plains 7 = plains`
	fixtureContinents = `
europe = { provinces = { 1 2 3 4 7 } }
africa = { provinces = { 5 6 } farm_rgo_size = 0.1 }
`
	fixtureRegions = `
ENG_1 = { 1 2 }
ENG_2 = { 3 4 }
AFR_1 = { 5 6 }
`
	fixtureAdjacency = `
1 = { 2 }
2 = { 1 3 }
3 = { 2 4 }
4 = { 3 }
5 = { 6 }
6 = { 5 }
`
	fixtureStraits = "From;To;Type;Through;Data;Comment\n4;5;sea;900;0;channel\n"
	fixturePorts   = `3 = 1003 5 = 1005`
	fixtureMods    = `
has_siege = { farm_rgo_eff = -0.5 mine_rgo_eff = -0.5 }
blockaded = { farm_rgo_eff = -0.3 }
war_exhaustion = { RGO_throughput = -0.01 }
good_harvest = { farm_rgo_size = 0.5 local_RGO_output = 0.1 }
prosperity = { RGO_throughput = 0.2 farm_rgo_eff = 0.05 }
`
	fixturePopTypes = `
aristocrats = { life_needs = { grain = 1 } luxury_needs = { wine = 2 } }
farmers = { life_needs = { grain = 1.5 } everyday_needs = { grain = 1 } }
labourers = { life_needs = { grain = 1 } }
slaves = { life_needs = { grain = 0.5 } }
`
	fixtureDefines = `pops = { PDEF_BASE_CON = 20 INVENTION_IMPACT_ON_DEMAND = 0.1 BASE_GOODS_DEMAND = 2 }`
	fixtureIssues  = `
economic_issues = {
	economic_policy = {
		laissez_faire = { farm_rgo_size = 0.1 RGO_output = 0.05 }
		interventionism = { farm_rgo_size = 0.2 }
	}
}
social_issues = {
	slavery = {
		yes_slavery = { RGO_throughput = 0.1 }
		no_slavery = { }
	}
}
`
	fixtureTechs = `
mechanized_mining = { rgo_size = { iron = 0.25 } }
clean_coal = { rgo_goods_output = { iron = 0.1 cotton = 0.2 } }
`
	fixtureInventions = `
inv_a = { RGO_size = { cotton = 0.5 } }
inv_b = { effect = { rgo_goods_output = { cotton = 0.3 } } }
inv_c = { rgo_goods_output = { cotton = 0.01 } effect = { rgo_goods_output = { cotton = 0.02 } } }
`
	fixtureNationalValues = `nv_order = { RGO_throughput = 0.03 }`
	fixtureCrime          = `banditism = { local_RGO_output = -0.1 } corruption = { local_RGO_output = -0.2 }`
	fixtureFocus          = `rail = { railroad_focus = { local_RGO_throughput = 0.4 } }`
)

func fixtureBundle(t *testing.T) *refdata.Bundle {
	t.Helper()
	return refdata.New(map[refdata.Dataset]*pdx.Node{
		refdata.Production:     node(t, fixtureProduction),
		refdata.Terrain:        node(t, fixtureTerrain),
		refdata.TerrainMap:     node(t, fixtureTerrainMap),
		refdata.Continents:     node(t, fixtureContinents),
		refdata.Regions:        node(t, fixtureRegions),
		refdata.AdjacencyMap:   node(t, fixtureAdjacency),
		refdata.PortMap:        node(t, fixturePorts),
		refdata.Modifiers:      node(t, fixtureMods),
		refdata.PopTypes:       node(t, fixturePopTypes),
		refdata.Defines:        node(t, fixtureDefines),
		refdata.Issues:         node(t, fixtureIssues),
		refdata.Technologies:   node(t, fixtureTechs),
		refdata.Inventions:     node(t, fixtureInventions),
		refdata.NationalValues: node(t, fixtureNationalValues),
		refdata.Crime:          node(t, fixtureCrime),
		refdata.NationalFocus:  node(t, fixtureFocus),
	}, map[refdata.Dataset]string{
		refdata.Adjacencies: fixtureStraits,
	})
}

func fixtureWorld(t *testing.T, save string) *World {
	t.Helper()
	w, err := NewWorld(node(t, save), fixtureBundle(t))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

// 单省份存档：1 号省份 40000 农民、10000 雇工，平原，没有任何修正。
const singleProvinceSave = `
ENG = { capital = 1 }
1 = {
	name = "London"
	owner = ENG
	controller = ENG
	farmers = { size = 40000 }
	rgo = {
		goods_type = cotton
		employment = { employees = { { province_pop_id = { province_id = 1 index = 0 type = 2 } count = 10000 } } }
	}
}
`

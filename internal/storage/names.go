package storage

import (
	"sort"

	"orrfdash/internal/core"
)

// manualAliases maps historical names that cannot be derived mechanically
// onto their FY25 raw keys. Keep this list short: anything resolvable by
// space stripping does not belong here.
var manualAliases = map[string]string{
	"Mount Washington": "MtWashington",
	"Manchester":       "ManchesterByTheSea",
}

// resolveHistoricalNames maps the distinct names of the FY23/FY24 tables to
// FY25 raw keys. Resolution order: verbatim match, manual alias, then space
// stripping ("North Adams" -> "NorthAdams"). Names that resolve no way stay
// unmapped and are returned sorted for the load log; their rows remain
// reachable under the raw historical name only.
func resolveHistoricalNames(fy23, fy24 map[string]core.Record, fy25Names map[string]bool) (map[string]string, []string) {
	histNames := make(map[string]bool, len(fy23)+len(fy24))
	for name := range fy23 {
		histNames[name] = true
	}
	for name := range fy24 {
		histNames[name] = true
	}

	nameMap := make(map[string]string)
	var unresolved []string
	for name := range histNames {
		if fy25Names[name] {
			continue
		}
		if alias, ok := manualAliases[name]; ok && fy25Names[alias] {
			nameMap[name] = alias
			continue
		}
		if noSpaces := core.StripSpaces(name); fy25Names[noSpaces] {
			nameMap[name] = noSpaces
			continue
		}
		unresolved = append(unresolved, name)
	}
	sort.Strings(unresolved)
	return nameMap, unresolved
}

// rekeyHistorical re-indexes a historical table under resolved FY25 keys,
// keeping the raw name for unresolved rows.
func rekeyHistorical(raw map[string]core.Record, nameMap map[string]string) map[string]core.Record {
	out := make(map[string]core.Record, len(raw))
	for name, rec := range raw {
		key := name
		if mapped, ok := nameMap[name]; ok {
			key = mapped
		}
		out[key] = rec
	}
	return out
}

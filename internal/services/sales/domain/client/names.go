package client

// Rosters are fixed per territory so a single d6 picks the company
// deterministically from the same seed material as every other roll.

var techNames = [6]string{
	"Nimbus Labs",
	"Vector Forge",
	"Quanta Systems",
	"Parallax Grid",
	"Ion Harbor",
	"Cobalt Stack",
}

var retailNames = [6]string{
	"Maple & Main",
	"Harbor Goods",
	"Golden Cart",
	"Willow Market",
	"Corner Crate",
	"Brightline Outfitters",
}

var financeNames = [6]string{
	"Sterling Row",
	"Beacon Capital",
	"Ledger House",
	"Meridian Trust",
	"Atlas Reserve",
	"Crown & Anchor Holdings",
}

// NameForRoll resolves a d6 against the territory roster. Rolls
// outside 1..6 or an unknown territory fall back to an anonymous
// prospect so callers never trade with an empty name.
func NameForRoll(t Territory, roll int) string {
	if roll < 1 || roll > 6 {
		return "Unlisted Prospect"
	}
	switch t {
	case TerritoryTech:
		return techNames[roll-1]
	case TerritoryRetail:
		return retailNames[roll-1]
	case TerritoryFinance:
		return financeNames[roll-1]
	default:
		return "Unlisted Prospect"
	}
}

package challenges

// CatalogEntry names a building the challenge generator may ask players to
// construct.
type CatalogEntry struct {
	BuildingID  string
	Description string
}

// catalog is the fixed pool the generator draws from. The required count is
// rolled per challenge, not taken from here.
var catalog = []CatalogEntry{
	{BuildingID: "3", Description: "HouseAs"},
	{BuildingID: "4", Description: "HouseBs"},
	{BuildingID: "7", Description: "Factory"},
	{BuildingID: "6", Description: "School"},
	{BuildingID: "11", Description: "Hospital"},
	{BuildingID: "5", Description: "SkyScrapper"},
	{BuildingID: "10", Description: "WindTurbines"},
}

// Catalog returns a copy of the challenge building pool.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

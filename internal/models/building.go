package models

// Building is an immutable catalog entry describing one building type.
// Keyed by a short string id assigned by the game designers.
type Building struct {
	ID                     string `json:"id"`
	Title                  string `json:"title"`
	Cost                   int64  `json:"cost"`
	Earning                int64  `json:"earning"`
	TaxIncome              int64  `json:"tax_income"`
	ResidentCapacity       int64  `json:"resident_capacity"`
	ElectricityConsumption int64  `json:"electricity_consumption"`
	WaterUsage             int64  `json:"water_usage"`
	WasteProduce           int64  `json:"waste_produce"`
	EcoPoints              int64  `json:"eco_points,omitempty"`
}

package buildings

// CreateBuildingRequest carries an administrative catalog entry.
type CreateBuildingRequest struct {
	ID                     string `json:"id"`
	Title                  string `json:"title"`
	Cost                   int64  `json:"cost"`
	Earning                int64  `json:"earning"`
	TaxIncome              int64  `json:"tax_income"`
	ResidentCapacity       int64  `json:"resident_capacity"`
	ElectricityConsumption int64  `json:"electricity_consumption"`
	WaterUsage             int64  `json:"water_usage"`
	WasteProduce           int64  `json:"waste_produce"`
	EcoPoints              int64  `json:"eco_points"`
}

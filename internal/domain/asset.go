package domain

type AssetCategory string

const (
	AssetCash       AssetCategory = "cash"
	AssetSavings    AssetCategory = "savings"
	AssetChecking   AssetCategory = "checking"
	AssetInvestment AssetCategory = "investment"
	AssetRetirement AssetCategory = "retirement"
	AssetRealEstate AssetCategory = "real-estate"
	AssetVehicle    AssetCategory = "vehicle"
	AssetCrypto     AssetCategory = "crypto"
	AssetOther      AssetCategory = "other"
)

var liquidCategories = map[AssetCategory]bool{
	AssetCash:     true,
	AssetSavings:  true,
	AssetChecking: true,
}

type Asset struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Category   AssetCategory `json:"category"`
	Value      float64       `json:"value"`
	Liquid     bool          `json:"liquid"`
	GrowthRate float64       `json:"growthRate,omitempty"`
}

// IsLiquid reports whether the asset counts toward an emergency fund.
func (a Asset) IsLiquid() bool {
	return a.Liquid || liquidCategories[a.Category]
}

type AssetInput struct {
	Name       string        `json:"name"`
	Category   AssetCategory `json:"category"`
	Value      float64       `json:"value"`
	Liquid     bool          `json:"liquid"`
	GrowthRate float64       `json:"growthRate,omitempty"`
}

func (in AssetInput) WithID(id string) Asset {
	return Asset{
		ID:         id,
		Name:       in.Name,
		Category:   in.Category,
		Value:      in.Value,
		Liquid:     in.Liquid,
		GrowthRate: in.GrowthRate,
	}
}

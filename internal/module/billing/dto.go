package billing

// PlanResponse is the public representation of a plan.
type PlanResponse struct {
	ID           string   `json:"id"`
	Tier         string   `json:"tier"`
	Name         string   `json:"name"`
	PriceUSD     int64    `json:"price_usd"`
	MonthlyEdits int      `json:"monthly_edits"`
	Unlimited    bool     `json:"unlimited"`
	BrandKits    int      `json:"brand_kits"`
	Features     []string `json:"features"`
}

// ToResponse converts a plan to its public representation.
func (p *Plan) ToResponse() *PlanResponse {
	return &PlanResponse{
		ID:           p.ID,
		Tier:         string(p.Tier),
		Name:         p.Name,
		PriceUSD:     p.PriceUSD,
		MonthlyEdits: p.MonthlyEdits,
		Unlimited:    p.MonthlyEdits == UnlimitedEdits,
		BrandKits:    p.BrandKits,
		Features:     p.Features,
	}
}

// ListPlansResponse wraps the plan list endpoint response.
type ListPlansResponse struct {
	Plans []*PlanResponse `json:"plans"`
}

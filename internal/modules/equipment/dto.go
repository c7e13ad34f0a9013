package equipment

type EquipmentRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Category    string `json:"category" binding:"omitempty,max=255"`
	Description string `json:"description"`
	TotalQty    *int   `json:"total_qty" binding:"required,gte=0"`
}

// Input is the validated payload for create and update.
type Input struct {
	Name        string
	Category    string
	Description string
	TotalQty    int
}

func (r EquipmentRequest) input() Input {
	in := Input{
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
	}
	if r.TotalQty != nil {
		in.TotalQty = *r.TotalQty
	}
	return in
}

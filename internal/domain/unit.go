package domain

// Unit is a rentable physical entity. Reference data only; units are
// created and retired outside this service.
type Unit struct {
	ID       int64  `json:"unit_id"`
	UnitCode string `json:"unit_code"`
}

package models

// ServiceType is a bookable variant of a base service (e.g. "Box Braids"
// under the "Braiding" base service). Clients select service types; line
// items deduplicate on the owning base service.
type ServiceType struct {
	ID            string      `bson:"id" json:"id"`
	BaseServiceID string      `bson:"base_service_id" json:"baseServiceId"`
	Name          string      `bson:"name" json:"name"`
	Category      BookingType `bson:"category" json:"category"`
	Price         float64     `bson:"price" json:"price"` // major units
	Active        bool        `bson:"active" json:"active"`
}

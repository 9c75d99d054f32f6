package models

import "errors"

// BookingType tags the payment metadata union.
type BookingType string

const (
	BookingTypeBeauty   BookingType = "beauty"
	BookingTypeLaundry  BookingType = "laundry"
	BookingTypeCleaning BookingType = "cleaning"
)

// BeautyBookingMetadata carries everything the finalizer needs to create an
// appointment after the gateway confirms payment.
type BeautyBookingMetadata struct {
	ServiceTypeIDs []string `bson:"service_type_ids" json:"serviceTypeIds"`
	SpecialistID   string   `bson:"specialist_id" json:"specialistId"`
	Date           string   `bson:"date" json:"date"` // "2006-01-02"
	Time           string   `bson:"time" json:"time"` // "15:04"
	Notes          string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// LaundryBookingMetadata carries the laundry order details. The specialist
// is auto-assigned at finalization, not chosen by the client.
type LaundryBookingMetadata struct {
	ServiceTypeIDs  []string `bson:"service_type_ids" json:"serviceTypeIds"`
	Date            string   `bson:"date" json:"date"`
	Time            string   `bson:"time" json:"time"`
	PickupAddress   string   `bson:"pickup_address" json:"pickupAddress"`
	DeliveryAddress string   `bson:"delivery_address" json:"deliveryAddress"`
	Notes           string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// CleaningBookingMetadata carries the cleaning order details.
type CleaningBookingMetadata struct {
	ServiceTypeIDs []string `bson:"service_type_ids" json:"serviceTypeIds"`
	Date           string   `bson:"date" json:"date"`
	Time           string   `bson:"time" json:"time"`
	Address        string   `bson:"address" json:"address"`
	Notes          string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// PaymentMetadata is a tagged union keyed by BookingType. Exactly one of the
// payload fields must be set, matching the tag.
type PaymentMetadata struct {
	BookingType BookingType              `bson:"booking_type" json:"bookingType"`
	Beauty      *BeautyBookingMetadata   `bson:"beauty,omitempty" json:"beauty,omitempty"`
	Laundry     *LaundryBookingMetadata  `bson:"laundry,omitempty" json:"laundry,omitempty"`
	Cleaning    *CleaningBookingMetadata `bson:"cleaning,omitempty" json:"cleaning,omitempty"`
}

var (
	ErrInvalidBookingType = errors.New("metadata: missing or unknown booking type")
	ErrMetadataMismatch   = errors.New("metadata: payload does not match booking type")
	ErrNoServiceTypes     = errors.New("metadata: no service types selected")
)

// Validate checks the union shape for the tagged booking type.
func (m PaymentMetadata) Validate() error {
	switch m.BookingType {
	case BookingTypeBeauty:
		if m.Beauty == nil {
			return ErrMetadataMismatch
		}
		if len(m.Beauty.ServiceTypeIDs) == 0 {
			return ErrNoServiceTypes
		}
	case BookingTypeLaundry:
		if m.Laundry == nil {
			return ErrMetadataMismatch
		}
		if len(m.Laundry.ServiceTypeIDs) == 0 {
			return ErrNoServiceTypes
		}
	case BookingTypeCleaning:
		if m.Cleaning == nil {
			return ErrMetadataMismatch
		}
		if len(m.Cleaning.ServiceTypeIDs) == 0 {
			return ErrNoServiceTypes
		}
	default:
		return ErrInvalidBookingType
	}
	return nil
}

// ServiceTypeIDs returns the selected service type ids for the tagged payload.
func (m PaymentMetadata) ServiceTypeIDs() []string {
	switch m.BookingType {
	case BookingTypeBeauty:
		if m.Beauty != nil {
			return m.Beauty.ServiceTypeIDs
		}
	case BookingTypeLaundry:
		if m.Laundry != nil {
			return m.Laundry.ServiceTypeIDs
		}
	case BookingTypeCleaning:
		if m.Cleaning != nil {
			return m.Cleaning.ServiceTypeIDs
		}
	}
	return nil
}

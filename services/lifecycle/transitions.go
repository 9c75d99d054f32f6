package lifecycle

import "servana/models"

// Allowed-next-state tables. Each state lists its explicit successors;
// there is no generic "any state can cancel" rule, only what the tables
// declare. Terminal states have no successors.

var appointmentTransitions = map[string][]string{
	models.AppointmentStatusPending:   {models.AppointmentStatusConfirmed, models.AppointmentStatusCanceled},
	models.AppointmentStatusConfirmed: {models.AppointmentStatusCompleted, models.AppointmentStatusCanceled},
	models.AppointmentStatusCompleted: {},
	models.AppointmentStatusCanceled:  {},
}

var laundryTransitions = map[string][]string{
	models.OrderStatusPendingPickup:  {models.OrderStatusPickedUp, models.OrderStatusCancelled},
	models.OrderStatusPickedUp:       {models.OrderStatusWashing, models.OrderStatusCancelled},
	models.OrderStatusWashing:        {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:          {models.OrderStatusOutForDelivery, models.OrderStatusCancelled},
	models.OrderStatusOutForDelivery: {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:      {},
	models.OrderStatusCancelled:      {},
}

var cleaningTransitions = map[string][]string{
	models.CleaningStatusPending:    {models.CleaningStatusConfirmed, models.CleaningStatusCanceled},
	models.CleaningStatusConfirmed:  {models.CleaningStatusInProgress, models.CleaningStatusCanceled},
	models.CleaningStatusInProgress: {models.CleaningStatusCompleted, models.CleaningStatusCanceled},
	models.CleaningStatusCompleted:  {},
	models.CleaningStatusCanceled:   {},
}

func allowed(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isCancellation(to string) bool {
	return to == models.AppointmentStatusCanceled || to == models.OrderStatusCancelled
}

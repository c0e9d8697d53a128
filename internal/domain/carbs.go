package domain

import "time"

type CarbEntry struct {
	StartDate      time.Time
	Grams          float64
	AbsorptionTime time.Duration
	FoodType       string
	// UserCreatedDate is when the entry was typed in; zero means StartDate.
	UserCreatedDate time.Time
	SyncIdentifier  string
}

func (c CarbEntry) EnteredAt() time.Time {
	if c.UserCreatedDate.IsZero() {
		return c.StartDate
	}

	return c.UserCreatedDate
}

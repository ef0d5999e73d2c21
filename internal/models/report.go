package models

import "time"

// FireReport is a fire sighting submitted by the public
type FireReport struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Province        string    `json:"province"`
	District        string    `json:"district"`
	LocationDetails string    `json:"location_details"`
	FireDate        string    `json:"fire_date"`
	Description     string    `json:"description"`
	Latitude        *float64  `json:"lat,omitempty"`
	Longitude       *float64  `json:"lon,omitempty"`
	Resolved        bool      `json:"resolved"`
	CreatedAt       time.Time `json:"created_at"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

package model

import "time"

// Address is the structured postal address attached to a citizen.
// Everything except Country is optional free text.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Citizen represents one identity record keyed by PAN.
type Citizen struct {
	PAN          string // immutable once created
	Name         string
	DOB          time.Time
	Phone        string
	Address      Address
	Version      int64 // incremented on every mutation, never decreased
	LastModified time.Time
}

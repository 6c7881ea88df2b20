package model

import "time"

// Client is a customer of the kennel.  Reservations always belong to
// exactly one client.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – full name of the client.
//  Email     – contact email address.
//  Phone     – contact phone number (optional).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Client struct {
	ID        uint64    `json:"id"`         // clients.id
	Name      string    `json:"name"`       // clients.name
	Email     string    `json:"email"`      // clients.email
	Phone     string    `json:"phone"`      // clients.phone
	CreatedAt time.Time `json:"created_at"` // clients.created_at
	UpdatedAt time.Time `json:"updated_at"` // clients.updated_at
}

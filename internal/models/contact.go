package models

import "time"

type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Message   string
	Read      bool
	Replied   bool
	CreatedAt time.Time
}

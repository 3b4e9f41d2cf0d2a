package model

import "time"

// DefaultGroup is assigned to contacts saved without a group.
const DefaultGroup = "その他"

// ContactGroups lists the groups offered when editing a contact.
var ContactGroups = []string{"家族", "友人", "病院", "お店", "役所", DefaultGroup}

// Contact is an address book entry.
type Contact struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Group       string    `json:"group"`
	IsFavorite  bool      `json:"is_favorite"`
	LastUsed    time.Time `json:"last_used"`
	CreatedAt   time.Time `json:"created_at"`
}

// Label renders the contact the way a mail header would.
func (c Contact) Label() string {
	if c.DisplayName == "" {
		return c.Email
	}
	return c.DisplayName + " <" + c.Email + ">"
}

package models

import "time"

// MasterAccountUsername is the username of the bootstrap master account.
const MasterAccountUsername = "admin"

// Account is a registered user. Master accounts can manage other accounts;
// regular accounts own only their own lists and history.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialized in API responses
	IsMaster     bool      `json:"isMaster"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AccountStorage is the on-disk representation, which unlike Account carries
// the password hash.
type AccountStorage struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	IsMaster     bool      `json:"isMaster"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToStorage converts an Account for persistence.
func (a Account) ToStorage() AccountStorage {
	return AccountStorage(a)
}

// ToAccount converts stored account data back to the API shape.
func (as AccountStorage) ToAccount() Account {
	return Account(as)
}

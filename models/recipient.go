package models

type Recipient struct {
	ID          string `gorm:"type:varchar(64);primary_key"`
	Name        string `gorm:"type:text"`
	PhoneNumber string `gorm:"type:varchar(32)"`
}

// HasPhone reports whether a phone number is on file.
func (r *Recipient) HasPhone() bool {
	return r.PhoneNumber != ""
}

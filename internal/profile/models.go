package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the narrow slice of the customer profile the verification core
// touches: the encrypted ID number write-back and contact details.
type Profile struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName         string    `json:"first_name"`
	Surname           string    `json:"surname"`
	IDNumberEncrypted string    `gorm:"column:id_number_encrypted" json:"-"`
	DateOfBirth       string    `json:"date_of_birth"`
	Address           string    `json:"address"`
	CellphoneNumber   string    `json:"cellphone_number"`
	HomePhone         string    `json:"home_phone"`
	WorkPhone         string    `json:"work_phone"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName keeps the historical table name.
func (Profile) TableName() string {
	return "profiles"
}

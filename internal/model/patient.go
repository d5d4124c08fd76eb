package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient represents a customer record with optical history
type Patient struct {
	ID        uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	FirstName string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	BirthDate *time.Time     `gorm:"type:date" json:"birth_date"`
	Address   string         `gorm:"type:text" json:"address"`
	Notes     string         `gorm:"type:text" json:"notes"`
	Checkups  []Checkup      `gorm:"foreignKey:PatientID" json:"checkups,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Checkup is a single eye examination. Prescriptions are optional and created
// in the same atomic unit as the checkup row.
type Checkup struct {
	ID          uuid.UUID                `gorm:"type:char(36);primaryKey" json:"id"`
	PatientID   uuid.UUID                `gorm:"type:char(36);not null;index" json:"patient_id"`
	CheckupDate time.Time                `gorm:"not null" json:"checkup_date"`
	Notes       string                   `gorm:"type:text" json:"notes"`
	Spectacle   *SpectaclePrescription   `gorm:"foreignKey:CheckupID" json:"spectacle_prescription,omitempty"`
	ContactLens *ContactLensPrescription `gorm:"foreignKey:CheckupID" json:"contact_lens_prescription,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	DeletedAt   gorm.DeletedAt           `gorm:"index" json:"-"`
}

func (c *Checkup) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// SpectaclePrescription holds per-eye spectacle values
type SpectaclePrescription struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CheckupID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex" json:"checkup_id"`
	ODSphere  string    `gorm:"type:varchar(20)" json:"od_sphere"`
	ODCyl     string    `gorm:"type:varchar(20)" json:"od_cyl"`
	ODAxis    string    `gorm:"type:varchar(20)" json:"od_axis"`
	ODAdd     string    `gorm:"type:varchar(20)" json:"od_add"`
	OSSphere  string    `gorm:"type:varchar(20)" json:"os_sphere"`
	OSCyl     string    `gorm:"type:varchar(20)" json:"os_cyl"`
	OSAxis    string    `gorm:"type:varchar(20)" json:"os_axis"`
	OSAdd     string    `gorm:"type:varchar(20)" json:"os_add"`
	PD        string    `gorm:"type:varchar(20)" json:"pd"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *SpectaclePrescription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ContactLensPrescription holds per-eye contact lens values
type ContactLensPrescription struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CheckupID   uuid.UUID `gorm:"type:char(36);not null;uniqueIndex" json:"checkup_id"`
	ODPower     string    `gorm:"type:varchar(20)" json:"od_power"`
	ODBaseCurve string    `gorm:"type:varchar(20)" json:"od_base_curve"`
	ODDiameter  string    `gorm:"type:varchar(20)" json:"od_diameter"`
	OSPower     string    `gorm:"type:varchar(20)" json:"os_power"`
	OSBaseCurve string    `gorm:"type:varchar(20)" json:"os_base_curve"`
	OSDiameter  string    `gorm:"type:varchar(20)" json:"os_diameter"`
	Brand       string    `gorm:"type:varchar(100)" json:"brand"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *ContactLensPrescription) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

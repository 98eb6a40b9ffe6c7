package models

type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);default:'member'"`
	// Balance is credited by completed transactions, always from the
	// transaction's stored amount.
	Balance float64 `gorm:"not null;default:0"`
}

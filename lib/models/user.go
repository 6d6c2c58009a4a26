package models

type User struct {
	UserID    uint   `gorm:"primaryKey"`
	Email     string `gorm:"unique"`
	FirstName string
	LastName  string

	Subscriptions []Subscription `gorm:"foreignKey:UserID"`
}

func (User) TableName() string { return "users" }

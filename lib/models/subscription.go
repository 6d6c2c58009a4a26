package models

// Subscription links a user to a product they track. Token is the opaque
// handle embedded in the unsubscribe links of every notification email.
type Subscription struct {
	SubscriptionID uint   `gorm:"primaryKey"`
	UserID         uint   `gorm:"index:idx_user_product,unique"`
	ProductID      uint   `gorm:"index:idx_user_product,unique"`
	Token          string `gorm:"uniqueIndex"`

	User    User    `gorm:"foreignKey:UserID"`
	Product Product `gorm:"foreignKey:ProductID"`
}

func (Subscription) TableName() string { return "subscriptions" }

type Subscriptions []Subscription

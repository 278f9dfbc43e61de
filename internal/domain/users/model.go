package users

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// MaxActiveSessions caps the number of bearer tokens a user may hold at rest.
// Issuing a session beyond the cap evicts the oldest token first.
const MaxActiveSessions = 3

type CartItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type User struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Account  string  `gorm:"size:20;not null;uniqueIndex:idx_users_account" json:"account"`
	Email    string  `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	Password string  `gorm:"not null" json:"-"`
	Role     string  `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	// Cart lines and active session tokens live on the user document itself,
	// the same way the record owns them in the data model: ordered, and only
	// mutated by the owning request.
	Cart   []CartItem `gorm:"serializer:json" json:"cart"`
	Tokens []string   `gorm:"serializer:json" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartTotal is derived on read and never persisted.
func (u *User) CartTotal() int {
	total := 0
	for _, item := range u.Cart {
		total += item.Quantity
	}
	return total
}

// HasToken reports whether token is still registered on the user.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

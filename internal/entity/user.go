package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a customer or staff account identified by email.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             int64     `bun:",pk,autoincrement"`
	Email          string    `bun:"email,notnull,unique" validate:"required,email,max=255"`
	PasswordHash   string    `bun:"password_hash,notnull" validate:"required"`
	FirstName      string    `bun:"first_name,notnull" validate:"required,max=100"`
	LastName       string    `bun:"last_name,notnull" validate:"required,max=100"`
	Phone          string    `bun:"phone,notnull" validate:"required,max=20"`
	DefaultAddress *string   `bun:"default_address"`
	RestaurantID   *int64    `bun:"restaurant_id"`
	Lifecycle      Lifecycle `bun:"lifecycle,notnull" validate:"required,oneof=active inactive"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

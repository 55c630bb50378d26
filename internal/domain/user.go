package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// UserCategory groups plant personnel for bulk training assignment.
type UserCategory string

// Categories used on the floor. Kept as the literal labels stored in the documents.
const (
	CategorySupervision   UserCategory = "Supervisión"
	CategoryIngresantes   UserCategory = "Ingresantes"
	CategoryOperaciones   UserCategory = "Operaciones"
	CategoryLineaDeMando  UserCategory = "Línea de Mando (FC)"
	CategoryTerceros      UserCategory = "Terceros"
	CategoryMantenimiento UserCategory = "Mantenimiento"
	CategoryBrigadistas   UserCategory = "Brigadistas"
	CategoryRRHH          UserCategory = "RRHH"
)

// User represents an employee (or admin) tracked by the training passport.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`                       // Full display name
	Username     string             `bson:"username" json:"username"`               // Unique login name, stored lowercase
	Email        string             `bson:"email,omitempty" json:"email,omitempty"` // Optional, stored lowercase; required for admins
	AvatarURL    string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Categories   []UserCategory     `bson:"categories,omitempty" json:"categories,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

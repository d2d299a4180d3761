package models

// User represents an internal user model for the application/database.
// Password always holds the bcrypt hash once the user has been stored.
type User struct {
	ID       string  `json:"_id" bson:"-" db:"id"`
	Name     string  `json:"name" bson:"name" db:"name"`
	Username string  `json:"username" bson:"username" db:"username"`
	Password string  `json:"password" bson:"password" db:"password"`
	Reward   float64 `json:"reward" bson:"reward" db:"reward"`
}

// NewUser creates a new User instance with the given fields.
// Note: No validation is performed here.
func NewUser(name, username, password string, reward float64) *User {
	return &User{
		Name:     name,
		Username: username,
		Password: password,
		Reward:   reward,
	}
}

// Fields returns the stored fields of the user keyed by their column name.
// The ID is left out, the store assigns it.
func (u User) Fields() map[string]interface{} {
	return map[string]interface{}{
		FieldName:     u.Name,
		FieldUsername: u.Username,
		FieldPassword: u.Password,
		FieldReward:   u.Reward,
	}
}

// UserUpdate carries a partial update. Nil fields keep their stored value.
type UserUpdate struct {
	Name     *string
	Username *string
	Password *string
	Reward   *float64
}

// Fields returns only the fields present in the update.
func (u UserUpdate) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.Name != nil {
		fields[FieldName] = *u.Name
	}
	if u.Username != nil {
		fields[FieldUsername] = *u.Username
	}
	if u.Password != nil {
		fields[FieldPassword] = *u.Password
	}
	if u.Reward != nil {
		fields[FieldReward] = *u.Reward
	}
	return fields
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Username == nil && u.Password == nil && u.Reward == nil
}

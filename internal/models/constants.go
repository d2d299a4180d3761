package models

const (
	UsersCollection = "users"

	FieldName     = "name"
	FieldUsername = "username"
	FieldPassword = "password"
	FieldReward   = "reward"
)

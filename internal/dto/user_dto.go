package dto

type CreateUserRequest struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Photo      string `json:"photo"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// UpdateProfileRequest overwrites only the fields that are present.
type UpdateProfileRequest struct {
	Email     *string `json:"email"`
	Username  *string `json:"username"`
	Photo     *string `json:"photo"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

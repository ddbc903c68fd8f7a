package types

// Registration is the body of POST /api/v1/register.
type Registration struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	UseCase   string `json:"useCase"`
}

// EmailUpdate is the body of PUT /api/v1/users.
type EmailUpdate struct {
	UserID   string `json:"userId"`
	NewEmail string `json:"newEmail"`
}

// AccountDeletion is the body of DELETE /api/v1/users.
type AccountDeletion struct {
	UserID string `json:"userId"`
}

// NewUser is what the identity provider needs to create an account.
type NewUser struct {
	Email       string
	Password    string
	DisplayName string
}

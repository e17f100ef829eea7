package user

type UpdateProfileRequest struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,min=3,max=30,alphanum"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=60"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=280"`
	ImageURL    *string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// ClerkUserData is the subset of a Clerk user payload we store.
type ClerkUserData struct {
	ID             string              `json:"id"`
	Username       string              `json:"username"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	ImageURL       string              `json:"image_url"`
	EmailAddresses []ClerkEmailAddress `json:"email_addresses"`
	PrimaryEmailID string              `json:"primary_email_address_id"`
	Deleted        bool                `json:"deleted"`
}

type ClerkEmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail returns the primary address, or the first one listed.
func (d *ClerkUserData) PrimaryEmail() string {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

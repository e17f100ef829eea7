package follow

type ListType string

const (
	Followers ListType = "followers"
	Following ListType = "following"
)

type ToggleFollowRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type Counts struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
}

package admin

type Collection struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type CollectionPage struct {
	Name  string           `json:"name"`
	Rows  []map[string]any `json:"rows"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}

type ReconcileReport struct {
	SubmissionsFixed int64 `json:"submissionsFixed"`
	UsersFixed       int64 `json:"usersFixed"`
}

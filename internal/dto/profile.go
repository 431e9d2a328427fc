package dto

// Profile is one account as shown on the profiles page. Status is derived:
// the requesting user shows as Active, everyone else as Inactive.
type Profile struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	IsCurrent bool   `json:"is_current"`
}

// ProfileList wraps all registered profiles.
type ProfileList struct {
	Profiles []Profile `json:"profiles"`
}

package dto

type UserListResponse struct {
	Users []string `json:"users"`
}

type CSRFResponse struct {
	CSRFToken string `json:"csrfToken"`
}

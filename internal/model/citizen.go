package model

type CitizenRecord struct {
	Identifier    string `json:"identifier"`
	FullName      string `json:"fullName"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	RequestsCount int    `json:"requestsCount"`
}

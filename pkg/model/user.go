package model

import "github.com/mahaj/harmonium/pkg/id"

type User struct {
	ID       id.ID[User] `json:"id"`
	Name     string      `json:"name"`
	ImageURL *string     `json:"image_url"`
}

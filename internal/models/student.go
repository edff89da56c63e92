package models

// Student is a roster entry. Only the code matters for grouping.
type Student struct {
	Code     string `db:"code" json:"code"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

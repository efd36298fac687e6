package entity

import "time"

// User is an employee account together with its assigned approvers
type User struct {
	UID           string    `json:"uid" bson:"uid"`
	Nama          string    `json:"nama" bson:"nama"`
	Email         string    `json:"email" bson:"email"`
	PasswordHash  string    `json:"-" bson:"passwordHash"`
	Role          Role      `json:"role" bson:"role"`
	Unit          string    `json:"unit" bson:"unit"`
	Department    []string  `json:"department" bson:"department"`
	BankName      string    `json:"bankName" bson:"bankName"`
	AccountNumber string    `json:"accountNumber" bson:"accountNumber"`
	Validator     []string  `json:"validator" bson:"validator"`
	Reviewer1     []string  `json:"reviewer1" bson:"reviewer1"`
	Reviewer2     []string  `json:"reviewer2" bson:"reviewer2"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Submitter is the snapshot of a user embedded into a submission.
// It is copied at submission time; later edits to the user do not reach it.
type Submitter struct {
	UID           string   `json:"uid" bson:"uid"`
	Nama          string   `json:"nama" bson:"nama"`
	Email         string   `json:"email" bson:"email"`
	Unit          string   `json:"unit" bson:"unit"`
	Department    []string `json:"department" bson:"department"`
	BankName      string   `json:"bankName" bson:"bankName"`
	AccountNumber string   `json:"accountNumber" bson:"accountNumber"`
	Validator     []string `json:"validator" bson:"validator"`
	Reviewer1     []string `json:"reviewer1" bson:"reviewer1"`
	Reviewer2     []string `json:"reviewer2" bson:"reviewer2"`
}

// Snapshot copies the fields a submission embeds
func (u *User) Snapshot() Submitter {
	return Submitter{
		UID:           u.UID,
		Nama:          u.Nama,
		Email:         u.Email,
		Unit:          u.Unit,
		Department:    append([]string(nil), u.Department...),
		BankName:      u.BankName,
		AccountNumber: u.AccountNumber,
		Validator:     append([]string(nil), u.Validator...),
		Reviewer1:     append([]string(nil), u.Reviewer1...),
		Reviewer2:     append([]string(nil), u.Reviewer2...),
	}
}

// ReviewersDisjoint reports whether no uid is both a Reviewer 1 and a Reviewer 2
func ReviewersDisjoint(reviewer1, reviewer2 []string) bool {
	seen := make(map[string]struct{}, len(reviewer1))
	for _, uid := range reviewer1 {
		seen[uid] = struct{}{}
	}
	for _, uid := range reviewer2 {
		if _, dup := seen[uid]; dup {
			return false
		}
	}
	return true
}

// Contains reports whether uid is in the set
func Contains(set []string, uid string) bool {
	if uid == "" {
		return false
	}
	for _, v := range set {
		if v == uid {
			return true
		}
	}
	return false
}

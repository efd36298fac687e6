package entity

import "fmt"

// Role is a user's organisational role
type Role string

const (
	RoleEmployee   Role = "Employee"
	RoleValidator  Role = "Validator"
	RoleReviewer   Role = "Reviewer"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "Super Admin"
)

var validRoles = map[Role]bool{
	RoleEmployee:   true,
	RoleValidator:  true,
	RoleReviewer:   true,
	RoleAdmin:      true,
	RoleSuperAdmin: true,
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanManageUsers reports whether the role may create and edit users
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// DocType identifies one of the three submission collections
type DocType string

const (
	DocReimbursement DocType = "reimbursement"
	DocBonSementara  DocType = "bonSementara"
	DocLPJ           DocType = "lpj"
)

// DocTypes lists every document type
func DocTypes() []DocType {
	return []DocType{DocReimbursement, DocBonSementara, DocLPJ}
}

// ParseDocType validates a document type name
func ParseDocType(s string) (DocType, error) {
	switch d := DocType(s); d {
	case DocReimbursement, DocBonSementara, DocLPJ:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, s)
	}
}

// IsValid reports whether d is a known document type
func (d DocType) IsValid() bool {
	_, err := ParseDocType(string(d))
	return err == nil
}

// Label is the human-facing name used in exports and storage paths
func (d DocType) Label() string {
	switch d {
	case DocReimbursement:
		return "Reimbursement"
	case DocBonSementara:
		return "BonSementara"
	case DocLPJ:
		return "LPJ"
	default:
		return string(d)
	}
}

// Reimbursement categories
const (
	CategoryMedical     = "Medical"
	CategoryOperasional = "Operasional"
	CategoryGAUmum      = "GA/Umum"
	CategoryMarketing   = "Marketing/Non-Operasional"
)

// Categories allowed per document type
var categoriesByDocType = map[DocType][]string{
	DocReimbursement: {CategoryMedical, CategoryOperasional, CategoryGAUmum, CategoryMarketing},
	DocBonSementara:  {"BS Operasional", "BS Proyek", "BS Perjalanan Dinas"},
	DocLPJ:           {"LPJ Operasional", "LPJ Proyek", "LPJ Perjalanan Dinas"},
}

// Categories returns the categories accepted for the document type
func (d DocType) Categories() []string {
	return append([]string(nil), categoriesByDocType[d]...)
}

// AcceptsCategory reports whether category belongs to the document type
func (d DocType) AcceptsCategory(category string) bool {
	for _, c := range categoriesByDocType[d] {
		if c == category {
			return true
		}
	}
	return false
}

package approval

import (
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Policy holds the per document type variations of the approval chain
type Policy struct {
	DocType entity.DocType
	// ValidationStep routes Diajukan through Divalidasi before Reviewer 1
	ValidationStep bool
}

// Policies indexes policies by document type
type Policies map[entity.DocType]Policy

// DefaultPolicies returns the stock chain: reimbursement and bon sementara are
// validated first, LPJ goes straight to Reviewer 1.
func DefaultPolicies() Policies {
	return Policies{
		entity.DocReimbursement: {DocType: entity.DocReimbursement, ValidationStep: true},
		entity.DocBonSementara:  {DocType: entity.DocBonSementara, ValidationStep: true},
		entity.DocLPJ:           {DocType: entity.DocLPJ, ValidationStep: false},
	}
}

// PoliciesFromConfig overrides the default validation step flags
func PoliciesFromConfig(validationStep map[string]bool) Policies {
	policies := DefaultPolicies()
	for name, enabled := range validationStep {
		docType, err := entity.ParseDocType(name)
		if err != nil {
			continue
		}
		policies[docType] = Policy{DocType: docType, ValidationStep: enabled}
	}
	return policies
}

// For returns the policy of a document type. Unknown types get the full chain.
func (p Policies) For(docType entity.DocType) Policy {
	if policy, ok := p[docType]; ok {
		return policy
	}
	return Policy{DocType: docType, ValidationStep: true}
}

package enums

// CustomerRole distinguishes storefront buyers from back-office staff.
type CustomerRole string

const (
	RoleCustomer CustomerRole = "customer"
	RoleAdmin    CustomerRole = "admin"
)

func (r CustomerRole) String() string {
	return string(r)
}

func (r CustomerRole) IsValid() bool {
	switch r {
	case RoleCustomer, RoleAdmin:
		return true
	default:
		return false
	}
}

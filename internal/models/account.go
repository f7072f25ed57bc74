package models

import "fmt"

// Account is the authenticated principal of a request. It is either a
// FarmerAccount or a CustomerAccount; services that only make sense for one
// role take the concrete type instead of the interface.
type Account interface {
	User() *User
	isAccount()
}

// FarmerAccount is a seller: owns products, fulfills order lines, receives reviews.
type FarmerAccount struct {
	user *User
}

// CustomerAccount is a buyer: owns cart lines, places orders, writes reviews.
type CustomerAccount struct {
	user *User
}

// User returns the underlying user row.
func (a FarmerAccount) User() *User { return a.user }

// ID returns the farmer's user id.
func (a FarmerAccount) ID() string { return a.user.ID }

func (FarmerAccount) isAccount() {}

// User returns the underlying user row.
func (a CustomerAccount) User() *User { return a.user }

// ID returns the customer's user id.
func (a CustomerAccount) ID() string { return a.user.ID }

func (CustomerAccount) isAccount() {}

// AccountFor wraps a user row into the account variant matching its role.
func AccountFor(user *User) (Account, error) {
	if user == nil {
		return nil, fmt.Errorf("nil user")
	}
	switch user.UserType {
	case UserTypeFarmer:
		return FarmerAccount{user: user}, nil
	case UserTypeCustomer:
		return CustomerAccount{user: user}, nil
	default:
		return nil, fmt.Errorf("unknown user type %q for user %s", user.UserType, user.ID)
	}
}

// AsFarmer returns the farmer view of user, or false when user is not a farmer.
func AsFarmer(user *User) (FarmerAccount, bool) {
	if user == nil || user.UserType != UserTypeFarmer {
		return FarmerAccount{}, false
	}
	return FarmerAccount{user: user}, true
}

// AsCustomer returns the customer view of user, or false when user is not a customer.
func AsCustomer(user *User) (CustomerAccount, bool) {
	if user == nil || user.UserType != UserTypeCustomer {
		return CustomerAccount{}, false
	}
	return CustomerAccount{user: user}, true
}

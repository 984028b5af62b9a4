// Package role models the closed set of marketplace roles.
package role

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

type Role string

const (
	Admin    Role = "admin"
	Vendor   Role = "vendor"
	Customer Role = "customer"
)

var ErrUnknown = errors.New("unknown role")

// All lists every role in display order.
var All = []Role{Admin, Vendor, Customer}

func Parse(s string) (Role, error) {
	switch Role(s) {
	case Admin, Vendor, Customer:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, s)
}

func (r Role) Valid() bool {
	_, err := Parse(string(r))
	return err == nil
}

// DashboardPath returns the landing page for the role. Every role has one;
// an invalid value is reported instead of falling back to a default page.
func DashboardPath(r Role) (string, error) {
	switch r {
	case Admin:
		return "/admin/dashboard", nil
	case Vendor:
		return "/vendor/dashboard", nil
	case Customer:
		return "/customer/dashboard", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, string(r))
}

func (r Role) String() string { return string(r) }

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, string(r))
	}
	return string(r), nil
}

func (r *Role) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("role: cannot scan %T", src)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

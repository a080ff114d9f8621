package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"
	StatusCompleted TransactionStatus = "completed"
)

type (
	TransactionStatus string

	UserDetails struct {
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Email       string `json:"email,omitempty"`
		PhoneNumber string `json:"phoneNumber,omitempty"`
	}

	Account struct {
		ID          string          `json:"id"`
		AccountName string          `json:"accountName"`
		Balance     decimal.Decimal `json:"balance"`
		Type        string          `json:"type"`
	}

	Profile struct {
		UserDetails      UserDetails `json:"userDetails"`
		Accounts         []Account   `json:"accounts"`
		PrimaryAccountID string      `json:"primaryAccountId"`
	}

	Transaction struct {
		ID              string            `json:"id"`
		DebitID         string            `json:"debitId"`
		CreditID        string            `json:"creditId"`
		Amount          decimal.Decimal   `json:"amount"`
		TransactionType string            `json:"transactionType"`
		Status          TransactionStatus `json:"status"`
		Timestamp       Timestamp         `json:"timestamp"`
	}
)

var (
	ErrEmptyAccountName = errors.New("empty account name")
	ErrAccountNotFound  = errors.New("account not found")
)

// Statuses lists the values offered by the status filter, in display order.
func Statuses() []TransactionStatus {
	return []TransactionStatus{StatusPending, StatusFailed, StatusCompleted}
}

// Label returns the capitalized status for display.
func (s TransactionStatus) Label() string {
	return Capitalize(string(s))
}

// FullName joins the capitalized first and last name.
func (u UserDetails) FullName() string {
	return strings.TrimSpace(Capitalize(u.FirstName) + " " + Capitalize(u.LastName))
}

// Account returns the account with the given id.
func (p Profile) Account(id string) (Account, error) {
	for _, a := range p.Accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

// IsPrimary reports whether id is the primary account.
func (p Profile) IsPrimary(id string) bool {
	return id != "" && id == p.PrimaryAccountID
}

// DefaultAccount is the first account in profile order, or the zero Account.
func (p Profile) DefaultAccount() Account {
	if len(p.Accounts) == 0 {
		return Account{}
	}
	return p.Accounts[0]
}

// Time returns the transaction timestamp.
func (t Transaction) Time() time.Time {
	return t.Timestamp.Time
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}

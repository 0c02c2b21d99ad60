package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount is the first magnitude a decimal(15,2) column cannot hold.
var maxAmount = decimal.New(1, 13)

func (in UserInput) normalized() UserInput {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

func (in UserInput) validate() string {
	switch {
	case in.ExternalID == "":
		return "Invalid user: external_id is required"
	case in.Name == "":
		return "Invalid user: name is required"
	case in.Email == "":
		return "Invalid user: email is required"
	}
	return ""
}

func (in BankInput) normalized() BankInput {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.UserExternalID = strings.TrimSpace(in.UserExternalID)
	in.Name = strings.TrimSpace(in.Name)
	return in
}

func (in BankInput) validate() string {
	switch {
	case in.ExternalID == "":
		return "Invalid bank: external_id is required"
	case in.UserExternalID == "":
		return "Invalid bank: user_external_id is required"
	case in.Name == "":
		return "Invalid bank: name is required"
	}
	return ""
}

func (in TransactionInput) normalized() TransactionInput {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.BankExternalID = strings.TrimSpace(in.BankExternalID)
	if in.Amount != nil && in.Amount.Equal(in.Amount.Round(2)) {
		amount := in.Amount.Round(2)
		in.Amount = &amount
	}
	return in
}

func (in TransactionInput) validate() string {
	switch {
	case in.ExternalID == "":
		return "Invalid transaction: external_id is required"
	case in.BankExternalID == "":
		return "Invalid transaction: bank_external_id is required"
	case in.Amount == nil:
		return "Invalid transaction: amount is required"
	case !in.Amount.Equal(in.Amount.Round(2)):
		return "Invalid transaction: amount must have at most 2 decimal places"
	case in.Amount.Abs().GreaterThanOrEqual(maxAmount):
		return "Invalid transaction: amount is out of range"
	case in.TransactionDate.IsZero():
		return "Invalid transaction: transaction_date is required"
	}
	return ""
}

package models

import "fmt"

var ErrAccountNotFound = fmt.Errorf("ledger account not found")
var ErrInstrumentNotFound = fmt.Errorf("ledger instrument not found")
var ErrInsufficientFunds = fmt.Errorf("insufficient funds")

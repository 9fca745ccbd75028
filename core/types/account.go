package types

import "math/big"

// Account is the balance-bearing record tracked for every address the engine
// touches: reporting contracts, the reward vault and reward recipients.
type Account struct {
	Nonce    uint64   `json:"nonce"`
	Balance  *big.Int `json:"balance"`
	CodeHash []byte   `json:"codeHash"`
}

// IsContract reports whether the account carries deployed code. Authorized
// caller membership is restricted to code-bearing addresses.
func (a *Account) IsContract() bool {
	return a != nil && len(a.CodeHash) > 0
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	if a.CodeHash != nil {
		clone.CodeHash = append([]byte(nil), a.CodeHash...)
	}
	return &clone
}

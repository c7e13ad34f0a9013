package domain

import "strconv"

// TenantID identifies the owning company. Every ledger read and write is
// scoped by it; the zero value is never a valid tenant.
type TenantID int64

func (t TenantID) Valid() bool { return t > 0 }

func (t TenantID) String() string { return strconv.FormatInt(int64(t), 10) }

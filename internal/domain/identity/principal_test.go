package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/safarhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountType(t *testing.T) {
	tests := []struct {
		input   string
		want    AccountType
		wantErr bool
	}{
		{"user", AccountTypeUser, false},
		{"Vendor", AccountTypeVendor, false},
		{" ADMIN ", AccountTypeAdmin, false},
		{"guest", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAccountType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrincipal_RoleChecks(t *testing.T) {
	admin := Principal{ID: uuid.New(), AccountType: AccountTypeAdmin}
	vendor := Principal{ID: uuid.New(), AccountType: AccountTypeVendor}
	user := Principal{ID: uuid.New(), AccountType: AccountTypeUser}

	assert.NoError(t, admin.RequireAdmin())
	assert.Equal(t, shared.ErrForbidden, vendor.RequireAdmin())
	assert.NoError(t, vendor.RequireVendor())
	assert.Equal(t, shared.ErrForbidden, user.RequireVendor())
	assert.NoError(t, user.RequireAny(AccountTypeUser, AccountTypeVendor))
	assert.Equal(t, shared.ErrForbidden, admin.RequireAny(AccountTypeUser))
}

func TestPrincipal_Validate(t *testing.T) {
	assert.Equal(t, shared.ErrUnauthorized, Principal{}.Validate())
	assert.Equal(t, shared.ErrUnauthorized, Principal{ID: uuid.New(), AccountType: "root"}.Validate())
	assert.Equal(t, shared.ErrUnauthorized, Principal{}.RequireAdmin())
}

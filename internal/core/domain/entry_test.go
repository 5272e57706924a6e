package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/imovelhub/backoffice/internal/core/domain"
)

func stringPtr(s string) *string { return &s }

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestEntry_IsPlanParent(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.Entry
		want  bool
	}{
		{
			name: "plan origin with multiple installments",
			entry: domain.Entry{
				Origin:            domain.OriginInstallmentPlan,
				InstallmentsCount: 12,
			},
			want: true,
		},
		{
			name: "plan origin but single installment",
			entry: domain.Entry{
				Origin:            domain.OriginInstallmentPlan,
				InstallmentsCount: 1,
			},
			want: false,
		},
		{
			name: "clone generated from a plan",
			entry: domain.Entry{
				Origin:            domain.OriginClone,
				CloneOf:           stringPtr("parent-1"),
				InstallmentsCount: 1,
			},
			want: false,
		},
		{
			name: "plan origin but clone of another entry",
			entry: domain.Entry{
				Origin:            domain.OriginInstallmentPlan,
				CloneOf:           stringPtr("parent-1"),
				InstallmentsCount: 3,
			},
			want: false,
		},
		{
			name: "manual entry with multiple installments",
			entry: domain.Entry{
				Origin:            domain.OriginManual,
				InstallmentsCount: 3,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.IsPlanParent())
		})
	}
}

func TestAccount_LowBalanceThreshold(t *testing.T) {
	tests := []struct {
		name          string
		account       domain.Account
		wantThreshold string
		wantOK        bool
	}{
		{
			name: "explicit threshold wins",
			account: domain.Account{
				AlertThreshold: decimalPtr(decimal.RequireFromString("200")),
				CreditLimit:    decimal.RequireFromString("1000"),
			},
			wantThreshold: "200",
			wantOK:        true,
		},
		{
			name: "credit limit derives negative threshold",
			account: domain.Account{
				CreditLimit: decimal.RequireFromString("500"),
			},
			wantThreshold: "-500",
			wantOK:        true,
		},
		{
			name:    "no threshold configured",
			account: domain.Account{},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			threshold, ok := tt.account.LowBalanceThreshold()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, threshold.Equal(decimal.RequireFromString(tt.wantThreshold)))
			}
		})
	}
}

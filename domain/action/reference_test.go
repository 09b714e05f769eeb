package action

import "testing"

func TestValidReference(t *testing.T) {
	tests := []struct {
		name        string
		referenceID string
		expected    bool
	}{
		{"REF family", "REF-2024-A7K", true},
		{"ACT family", "ACT-9X2-P4L", true},
		{"PAY family", "PAY-5M8-Q1N", true},
		{"ESC family", "ESC-3T6-R9W", true},
		{"CTR family", "CTR-1A2-B3C", true},
		{"REF long suffix", "REF-0001-ABCDEF123", true},
		{"unknown prefix", "INVALID-123", false},
		{"REF three digits", "REF-123-A7K", false},
		{"REF five digits", "REF-20245-A7K", false},
		{"REF letters in digits", "REF-20A4-A7K", false},
		{"lowercase suffix", "REF-2024-a7k", false},
		{"missing segment", "ACT-9X2", false},
		{"empty suffix", "PAY-5M8-", false},
		{"empty string", "", false},
		{"prefix only", "REF", false},
		{"trailing garbage", "REF-2024-A7K extra", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidReference(tt.referenceID); got != tt.expected {
				t.Errorf("ValidReference(%q) = %v, want %v", tt.referenceID, got, tt.expected)
			}
		})
	}
}

func TestValidateReference(t *testing.T) {
	if err := ValidateReference("REF-2024-A7K"); err != nil {
		t.Errorf("ValidateReference(valid) = %v, want nil", err)
	}
	if err := ValidateReference("INVALID-123"); err != ErrInvalidReference {
		t.Errorf("ValidateReference(invalid) = %v, want ErrInvalidReference", err)
	}
}

func TestTypeForReference(t *testing.T) {
	tests := []struct {
		referenceID string
		expected    Type
	}{
		{"REF-2024-A7K", TypeVerificationCheck},
		{"ACT-9X2-P4L", TypeFundTransfer},
		{"PAY-5M8-Q1N", TypePaymentSettlement},
		{"ESC-3T6-R9W", TypeEscrowHold},
		{"CTR-1A2-B3C", TypeContractExecution},
		{"XYZ-1A2-B3C", TypeVerificationCheck}, // Unknown prefix defaults
		{"no-hyphen", TypeVerificationCheck},
	}

	for _, tt := range tests {
		t.Run(tt.referenceID, func(t *testing.T) {
			if got := TypeForReference(tt.referenceID); got != tt.expected {
				t.Errorf("TypeForReference(%q) = %q, want %q", tt.referenceID, got, tt.expected)
			}
		})
	}
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		referenceID string
		expected    string
	}{
		{"REF-2024-A7K", "REF"},
		{"ACT-9X2-P4L", "ACT"},
		{"nohyphen", "nohyphen"},
		{"", ""},
		{"-leading", ""},
	}

	for _, tt := range tests {
		t.Run(tt.referenceID, func(t *testing.T) {
			if got := Prefix(tt.referenceID); got != tt.expected {
				t.Errorf("Prefix(%q) = %q, want %q", tt.referenceID, got, tt.expected)
			}
		})
	}
}

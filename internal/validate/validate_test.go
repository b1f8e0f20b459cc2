package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `validate:"required,min=2" message:"Nome deve ter no mínimo 2 caracteres"`
	Email string `validate:"required,email" message:"Email inválido"`
	TaxID string `validate:"omitempty,cpfcnpj" message:"CPF ou CNPJ inválido"`
	Phone string `validate:"omitempty,brphone" message:"Telefone deve estar no formato 55XXXXXXXXXXX"`
}

func TestStructValid(t *testing.T) {
	err := Struct(&sampleRequest{
		Name:  "Ana",
		Email: "ana@example.com",
		TaxID: "12345678901",
		Phone: "5511999998888",
	})
	assert.Nil(t, err)
}

func TestStructUsesFieldMessage(t *testing.T) {
	err := Struct(&sampleRequest{Name: "A", Email: "ana@example.com"})
	require.NotNil(t, err)
	assert.Equal(t, 400, err.Status)
	assert.Equal(t, "Nome deve ter no mínimo 2 caracteres", err.Message)
}

func TestStructEmailMessage(t *testing.T) {
	err := Struct(&sampleRequest{Name: "Ana", Email: "not-an-email"})
	require.NotNil(t, err)
	assert.Equal(t, "Email inválido", err.Message)
}

func TestCPFCNPJRule(t *testing.T) {
	cases := []struct {
		taxID string
		valid bool
	}{
		{"12345678901", true},     // CPF, 11 digits
		{"12345678000199", true},  // CNPJ, 14 digits
		{"123456789", false},      // too short
		{"123456789012", false},   // 12 digits fits neither
		{"1234567890a", false},    // non-digit
		{"123.456.789-01", false}, // formatted input is rejected
	}
	for _, tc := range cases {
		err := Struct(&sampleRequest{Name: "Ana", Email: "ana@example.com", TaxID: tc.taxID})
		if tc.valid {
			assert.Nil(t, err, "taxID %q should be valid", tc.taxID)
		} else {
			require.NotNil(t, err, "taxID %q should be invalid", tc.taxID)
			assert.Equal(t, "CPF ou CNPJ inválido", err.Message)
		}
	}
}

func TestBRPhoneRule(t *testing.T) {
	cases := []struct {
		phone string
		valid bool
	}{
		{"5511999998888", true}, // 55 + 11 digits
		{"551133334444", true},  // 55 + 10 digits
		{"11999998888", false},  // missing country code
		{"5411999998888", false},
		{"55119999", false},
	}
	for _, tc := range cases {
		err := Struct(&sampleRequest{Name: "Ana", Email: "ana@example.com", Phone: tc.phone})
		if tc.valid {
			assert.Nil(t, err, "phone %q should be valid", tc.phone)
		} else {
			require.NotNil(t, err, "phone %q should be invalid", tc.phone)
			assert.Equal(t, "Telefone deve estar no formato 55XXXXXXXXXXX", err.Message)
		}
	}
}

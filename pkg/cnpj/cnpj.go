// Package cnpj extrai, valida e consulta CNPJs de fornecedores.
package cnpj

import (
	"errors"
	"regexp"
)

// ErrInvalidCNPJ is returned when the input does not hold 14 digits.
var ErrInvalidCNPJ = errors.New("cnpj: CNPJ inválido")

var (
	// 00.000.000/0000-00 primeiro, depois 14 dígitos corridos
	cnpjPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`),
		regexp.MustCompile(`\d{14}`),
	}
	nonDigit = regexp.MustCompile(`\D`)
)

// Clean remove tudo que não for dígito.
func Clean(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// Format formata no padrão XX.XXX.XXX/XXXX-XX. Strings sem 14 dígitos voltam inalteradas.
func Format(cnpj string) string {
	if len(cnpj) != 14 {
		return cnpj
	}
	return cnpj[0:2] + "." + cnpj[2:5] + "." + cnpj[5:8] + "/" + cnpj[8:12] + "-" + cnpj[12:14]
}

// IsValid checks length, repeated digits and both check digits.
func IsValid(cnpj string) bool {
	if len(cnpj) != 14 {
		return false
	}
	for i := 0; i < 14; i++ {
		if cnpj[i] < '0' || cnpj[i] > '9' {
			return false
		}
	}

	allSame := true
	for i := 1; i < 14; i++ {
		if cnpj[i] != cnpj[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	return int(cnpj[12]-'0') == checkDigit(cnpj[:12], 5) &&
		int(cnpj[13]-'0') == checkDigit(cnpj[:13], 6)
}

// checkDigit computes one verifier digit; weights run from start down to 2
// and wrap back to 9.
func checkDigit(digits string, start int) int {
	sum, weight := 0, start
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	d := 11 - sum%11
	if d >= 10 {
		return 0
	}
	return d
}

// ExtractCNPJ devolve o primeiro CNPJ válido encontrado no texto, só dígitos, ou "".
func ExtractCNPJ(text string) string {
	for _, re := range cnpjPatterns {
		for _, match := range re.FindAllString(text, -1) {
			if digits := Clean(match); IsValid(digits) {
				return digits
			}
		}
	}
	return ""
}

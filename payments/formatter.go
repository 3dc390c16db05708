package payments

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

const (
	CorrespondentMTNCMR    = "MTN_MOMO_CMR"
	CorrespondentOrangeCMR = "ORANGE_CMR"
)

var (
	phoneFormattingRegex = regexp.MustCompile(`[\s\-\(\)]`)
	localMobileRegex     = regexp.MustCompile(`^6\d{8}$`)
)

// Prefix tables for carrier classification. Longest match wins, so the
// six-digit entries are checked alongside the five-digit ones.
var mtnPrefixes = []string{
	"23767",
	"237680", "237681", "237682", "237683", "237684",
	"237650", "237651", "237652", "237653", "237654",
}

var orangePrefixes = []string{
	"23769",
	"237655", "237656", "237657", "237658", "237659",
	"237685", "237686", "237687", "237688", "237689",
	"237640",
}

// FormatPhoneNumber strips formatting, expands bare local numbers with the
// country code and classifies the number into a provider correspondent. The
// classification silently routes money, so keep it deterministic: prefix
// tables first, then the single-digit heuristic, then the MTN default.
func FormatPhoneNumber(phoneNumber string) (string, string) {
	phoneNumber = phoneFormattingRegex.ReplaceAllString(phoneNumber, "")
	phoneNumber = strings.TrimPrefix(phoneNumber, "+")

	if localMobileRegex.MatchString(phoneNumber) {
		phoneNumber = "237" + phoneNumber
	}

	correspondent := ""

	for _, prefix := range mtnPrefixes {
		if strings.HasPrefix(phoneNumber, prefix) {
			correspondent = CorrespondentMTNCMR
			break
		}
	}

	if correspondent == "" {
		for _, prefix := range orangePrefixes {
			if strings.HasPrefix(phoneNumber, prefix) {
				correspondent = CorrespondentOrangeCMR
				break
			}
		}
	}

	if correspondent == "" && len(phoneNumber) >= 4 {
		switch phoneNumber[3] {
		case '6':
			correspondent = CorrespondentMTNCMR
		case '9':
			correspondent = CorrespondentOrangeCMR
		}
	}

	if correspondent == "" {
		correspondent = CorrespondentMTNCMR
	}

	return phoneNumber, correspondent
}

// FormatAmount renders an amount as the integer string the provider expects;
// it rejects decimals outright.
func FormatAmount(amount float64) string {
	if math.Floor(amount) == amount {
		return fmt.Sprintf("%d", int64(amount))
	}
	return fmt.Sprintf("%d", int64(math.Round(amount)))
}

type MetadataField struct {
	FieldName  string `json:"fieldName"`
	FieldValue string `json:"fieldValue"`
	IsPII      bool   `json:"isPII"`
}

// FormatMetadata coerces arbitrary metadata into the provider's field-triple
// shape with string values.
func FormatMetadata(metadata map[string]interface{}) []MetadataField {
	formatted := make([]MetadataField, 0, len(metadata))
	for key, value := range metadata {
		formatted = append(formatted, MetadataField{
			FieldName:  key,
			FieldValue: fmt.Sprintf("%v", value),
			IsPII:      false,
		})
	}
	return formatted
}

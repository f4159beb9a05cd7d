package sms

import (
	"fmt"
	"regexp"
	"strings"
)

var zaNumber = regexp.MustCompile(`^(?:\+27|27|0)(\d{9})$`)

// NormalizeZA converts a South African cellphone number ("0821234567" or
// "+27821234567") to E.164 form. Formatting is the caller's responsibility
// before handing a number to Sender.
func NormalizeZA(number string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(number)
	match := zaNumber.FindStringSubmatch(cleaned)
	if match == nil {
		return "", fmt.Errorf("not a valid South African cellphone number: %q", number)
	}
	return "+27" + match[1], nil
}

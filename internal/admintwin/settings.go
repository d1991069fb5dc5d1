package admintwin

import (
	"fmt"
	"strconv"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
)

// settingsSchema lists every writable account setting and its value type.
var settingsSchema = map[string]valueKind{
	"lockout_threshold":             kindInt,
	"lockout_expire_duration":       kindInt,
	"inactive_user_expiration":      kindInt,
	"sms_batch":                     kindInt,
	"sms_expiration":                kindInt,
	"sms_refresh":                   kindBool,
	"sms_message":                   kindString,
	"fraud_email":                   kindString,
	"fraud_email_enabled":           kindBool,
	"keypress_confirm":              kindString,
	"keypress_fraud":                kindString,
	"timezone":                      kindString,
	"telephony_warning_min":         kindInt,
	"caller_id":                     kindString,
	"push_enabled":                  kindBool,
	"sms_enabled":                   kindBool,
	"voice_enabled":                 kindBool,
	"mobile_otp_enabled":            kindBool,
	"u2f_enabled":                   kindBool,
	"user_telephony_cost_max":       kindInt,
	"minimum_password_length":       kindInt,
	"password_requires_upper_alpha": kindBool,
	"password_requires_lower_alpha": kindBool,
	"password_requires_numeric":     kindBool,
	"password_requires_special":     kindBool,
}

func defaultSettings() map[string]any {
	return map[string]any{
		"name":                          "",
		"lockout_threshold":             10,
		"lockout_expire_duration":       0,
		"inactive_user_expiration":      0,
		"sms_batch":                     1,
		"sms_expiration":                0,
		"sms_refresh":                   false,
		"sms_message":                   "",
		"fraud_email":                   "",
		"fraud_email_enabled":           false,
		"keypress_confirm":              "#",
		"keypress_fraud":                "0",
		"timezone":                      "UTC",
		"telephony_warning_min":         0,
		"caller_id":                     "",
		"push_enabled":                  true,
		"sms_enabled":                   true,
		"voice_enabled":                 true,
		"mobile_otp_enabled":            true,
		"u2f_enabled":                   false,
		"user_telephony_cost_max":       20,
		"minimum_password_length":       12,
		"password_requires_upper_alpha": false,
		"password_requires_lower_alpha": false,
		"password_requires_numeric":     false,
		"password_requires_special":     false,
	}
}

// parseFlag accepts the boolean spellings the admin API accepts.
func parseFlag(s string) (bool, error) {
	switch s {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

// parseSetting converts a wire value to the setting's type.
func parseSetting(name, raw string) (any, error) {
	kind, ok := settingsSchema[name]
	if !ok {
		return nil, fmt.Errorf("unknown setting %q", name)
	}
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", name)
		}
		return n, nil
	case kindBool:
		b, err := parseFlag(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return b, nil
	default:
		return raw, nil
	}
}

package reconcile

import "duoctl/internal/domain"

// Normalize converts a typed record into its field set. Optional fields the
// caller did not supply are left out entirely; supplied fields keep their
// value even when falsy. Boolean integration flags are translated to the
// "1"/"0" strings the API expects.
func Normalize(r domain.Resource) domain.FieldSet {
	switch v := r.(type) {
	case domain.Account:
		return accountFields(v)
	case domain.Integration:
		return integrationFields(v)
	case domain.Settings:
		return settingsFields(v)
	case domain.Edition:
		return editionFields(v)
	default:
		return nil
	}
}

type fieldBuilder struct {
	fields domain.FieldSet
}

func (b *fieldBuilder) str(name string, v *string) {
	if v != nil {
		b.fields = append(b.fields, domain.Field{Name: name, Value: *v})
	}
}

func (b *fieldBuilder) num(name string, v *int) {
	if v != nil {
		b.fields = append(b.fields, domain.Field{Name: name, Value: *v})
	}
}

func (b *fieldBuilder) boolean(name string, v *bool) {
	if v != nil {
		b.fields = append(b.fields, domain.Field{Name: name, Value: *v})
	}
}

func (b *fieldBuilder) flag(name string, v *bool) {
	if v == nil {
		return
	}
	s := "0"
	if *v {
		s = "1"
	}
	b.fields = append(b.fields, domain.Field{Name: name, Value: s})
}

func accountFields(a domain.Account) domain.FieldSet {
	fs := domain.FieldSet{{Name: "name", Value: a.Name}}
	if a.AccountID != "" {
		fs = append(fs, domain.Field{Name: "account_id", Value: a.AccountID})
	}
	if a.APIHostname != "" {
		fs = append(fs, domain.Field{Name: "api_hostname", Value: a.APIHostname})
	}
	return fs
}

func integrationFields(in domain.Integration) domain.FieldSet {
	var b fieldBuilder
	b.str("name", in.Name)
	b.str("type", in.Type)
	b.flag("self_service_allowed", in.SelfServiceAllowed)
	return b.fields
}

func settingsFields(s domain.Settings) domain.FieldSet {
	var b fieldBuilder
	b.num("lockout_threshold", s.LockoutThreshold)
	b.num("lockout_expire_duration", s.LockoutExpireDuration)
	b.num("inactive_user_expiration", s.InactiveUserExpiration)
	b.num("sms_batch", s.SMSBatch)
	b.num("sms_expiration", s.SMSExpiration)
	b.boolean("sms_refresh", s.SMSRefresh)
	b.str("sms_message", s.SMSMessage)
	b.str("fraud_email", s.FraudEmail)
	b.boolean("fraud_email_enabled", s.FraudEmailEnabled)
	b.str("keypress_confirm", s.KeypressConfirm)
	b.str("keypress_fraud", s.KeypressFraud)
	b.str("timezone", s.Timezone)
	b.num("telephony_warning_min", s.TelephonyWarningMin)
	b.str("caller_id", s.CallerID)
	b.boolean("push_enabled", s.PushEnabled)
	b.boolean("sms_enabled", s.SMSEnabled)
	b.boolean("voice_enabled", s.VoiceEnabled)
	b.boolean("mobile_otp_enabled", s.MobileOTPEnabled)
	b.boolean("u2f_enabled", s.U2FEnabled)
	b.num("user_telephony_cost_max", s.UserTelephonyCostMax)
	b.num("minimum_password_length", s.MinimumPasswordLength)
	b.boolean("password_requires_upper_alpha", s.PasswordRequiresUpperAlpha)
	b.boolean("password_requires_lower_alpha", s.PasswordRequiresLowerAlpha)
	b.boolean("password_requires_numeric", s.PasswordRequiresNumeric)
	b.boolean("password_requires_special", s.PasswordRequiresSpecial)
	return b.fields
}

func editionFields(e domain.Edition) domain.FieldSet {
	var fs domain.FieldSet
	if e.Edition != nil {
		fs = append(fs, domain.Field{Name: "edition", Value: string(*e.Edition)})
	}
	return fs
}

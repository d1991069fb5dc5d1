package domain

// Resource is the tagged variant over the reconcilable record types.
type Resource interface {
	Kind() Kind
	isResource()
}

// Account is a child account of the parent administrative portal.
type Account struct {
	Name        string `json:"name" yaml:"name"`
	AccountID   string `json:"account_id,omitempty" yaml:"-"`
	APIHostname string `json:"api_hostname,omitempty" yaml:"-"`
}

// Kind implements Resource.
func (Account) Kind() Kind { return KindAccount }
func (Account) isResource() {}

// Integration is an application integration within an account.
// IKey selects an existing integration; when empty the integration is located
// by Name.
type Integration struct {
	IKey               string  `json:"integration_key,omitempty" yaml:"app_ikey,omitempty"`
	SKey               string  `json:"secret_key,omitempty" yaml:"-"`
	Name               *string `json:"name,omitempty" yaml:"name,omitempty"`
	Type               *string `json:"type,omitempty" yaml:"type,omitempty"`
	SelfServiceAllowed *bool   `json:"self_service_allowed,omitempty" yaml:"self_service_allowed,omitempty"`

	// Raw is the record exactly as the API returned it.
	Raw map[string]any `json:"-" yaml:"-"`
}

// Kind implements Resource.
func (Integration) Kind() Kind { return KindIntegration }
func (Integration) isResource() {}

// Settings is the account-wide settings singleton.
type Settings struct {
	LockoutThreshold           *int    `json:"lockout_threshold,omitempty" yaml:"lockout_threshold,omitempty"`
	LockoutExpireDuration      *int    `json:"lockout_expire_duration,omitempty" yaml:"lockout_expire_duration,omitempty"`
	InactiveUserExpiration     *int    `json:"inactive_user_expiration,omitempty" yaml:"inactive_user_expiration,omitempty"`
	SMSBatch                   *int    `json:"sms_batch,omitempty" yaml:"sms_batch,omitempty"`
	SMSExpiration              *int    `json:"sms_expiration,omitempty" yaml:"sms_expiration,omitempty"`
	SMSRefresh                 *bool   `json:"sms_refresh,omitempty" yaml:"sms_refresh,omitempty"`
	SMSMessage                 *string `json:"sms_message,omitempty" yaml:"sms_message,omitempty"`
	FraudEmail                 *string `json:"fraud_email,omitempty" yaml:"fraud_email,omitempty"`
	FraudEmailEnabled          *bool   `json:"fraud_email_enabled,omitempty" yaml:"fraud_email_enabled,omitempty"`
	KeypressConfirm            *string `json:"keypress_confirm,omitempty" yaml:"keypress_confirm,omitempty"`
	KeypressFraud              *string `json:"keypress_fraud,omitempty" yaml:"keypress_fraud,omitempty"`
	Timezone                   *string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	TelephonyWarningMin        *int    `json:"telephony_warning_min,omitempty" yaml:"telephony_warning_min,omitempty"`
	CallerID                   *string `json:"caller_id,omitempty" yaml:"caller_id,omitempty"`
	PushEnabled                *bool   `json:"push_enabled,omitempty" yaml:"push_enabled,omitempty"`
	SMSEnabled                 *bool   `json:"sms_enabled,omitempty" yaml:"sms_enabled,omitempty"`
	VoiceEnabled               *bool   `json:"voice_enabled,omitempty" yaml:"voice_enabled,omitempty"`
	MobileOTPEnabled           *bool   `json:"mobile_otp_enabled,omitempty" yaml:"mobile_otp_enabled,omitempty"`
	U2FEnabled                 *bool   `json:"u2f_enabled,omitempty" yaml:"u2f_enabled,omitempty"`
	UserTelephonyCostMax       *int    `json:"user_telephony_cost_max,omitempty" yaml:"user_telephony_cost_max,omitempty"`
	MinimumPasswordLength      *int    `json:"minimum_password_length,omitempty" yaml:"minimum_password_length,omitempty"`
	PasswordRequiresUpperAlpha *bool   `json:"password_requires_upper_alpha,omitempty" yaml:"password_requires_upper_alpha,omitempty"`
	PasswordRequiresLowerAlpha *bool   `json:"password_requires_lower_alpha,omitempty" yaml:"password_requires_lower_alpha,omitempty"`
	PasswordRequiresNumeric    *bool   `json:"password_requires_numeric,omitempty" yaml:"password_requires_numeric,omitempty"`
	PasswordRequiresSpecial    *bool   `json:"password_requires_special,omitempty" yaml:"password_requires_special,omitempty"`

	// Raw is the record exactly as the API returned it.
	Raw map[string]any `json:"-" yaml:"-"`
}

// Kind implements Resource.
func (Settings) Kind() Kind { return KindSettings }
func (Settings) isResource() {}

// EditionName is a billing edition.
type EditionName string

// Billing editions. They correspond to MFA, Access, and Beyond.
const (
	EditionEnterprise EditionName = "ENTERPRISE"
	EditionPlatform   EditionName = "PLATFORM"
	EditionBeyond     EditionName = "BEYOND"
)

// Editions lists the accepted billing editions.
var Editions = []EditionName{EditionEnterprise, EditionPlatform, EditionBeyond}

// Valid reports whether e is one of the accepted editions.
func (e EditionName) Valid() bool {
	for _, v := range Editions {
		if e == v {
			return true
		}
	}
	return false
}

// Edition is the billing edition singleton of a child account.
type Edition struct {
	AccountID string       `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Edition   *EditionName `json:"edition,omitempty" yaml:"edition,omitempty"`
}

// Kind implements Resource.
func (Edition) Kind() Kind { return KindEdition }
func (Edition) isResource() {}

// Ptr returns a pointer to v. It is used to build optional record fields.
func Ptr[T any](v T) *T { return &v }

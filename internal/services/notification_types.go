package services

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Field kinds drive both frontend rendering and config validation.
const (
	FieldText      = "text"
	FieldSecret    = "secret"
	FieldChoice    = "choice"
	FieldBoolean   = "boolean"
	FieldNumber    = "number"
	FieldMultiline = "multiline"
	FieldURL       = "url"
)

type FieldSpec struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Kind        string      `json:"kind"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Choices     []string    `json:"choices,omitempty"`
	Min         *float64    `json:"min,omitempty"`
	Max         *float64    `json:"max,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
}

type ClientTypeInfo struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Fields      []FieldSpec `json:"fields"`
}

type Scenario struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

const (
	ClientTypeWechatWork = "wechat_work"
	ClientTypeTelegram   = "telegram"
	ClientTypeEmail      = "email"
	ClientTypeWebhook    = "webhook"
)

func floatPtr(f float64) *float64 { return &f }

var clientTypes = []ClientTypeInfo{
	{
		Type:        ClientTypeWechatWork,
		Name:        "WeChat Work",
		Description: "Group robot webhook for WeChat Work",
		Fields: []FieldSpec{
			{Key: "webhook_url", Label: "Webhook URL", Kind: FieldURL, Required: true, Placeholder: "https://qyapi.weixin.qq.com/cgi-bin/webhook/send?key=..."},
			{Key: "mentioned_list", Label: "Mention User IDs", Kind: FieldMultiline, Required: false, Placeholder: "user1,user2"},
			{Key: "mentioned_mobile_list", Label: "Mention Mobiles", Kind: FieldMultiline, Required: false, Placeholder: "13800138000,13900139000"},
		},
	},
	{
		Type:        ClientTypeTelegram,
		Name:        "Telegram",
		Description: "Telegram bot via the sendMessage API",
		Fields: []FieldSpec{
			{Key: "bot_token", Label: "Bot Token", Kind: FieldSecret, Required: true},
			{Key: "chat_id", Label: "Chat ID", Kind: FieldText, Required: true, Placeholder: "-1001234567890"},
			{Key: "parse_mode", Label: "Parse Mode", Kind: FieldChoice, Required: false, Default: "Markdown", Choices: []string{"Markdown", "HTML"}},
			{Key: "disable_web_page_preview", Label: "Disable Link Preview", Kind: FieldBoolean, Required: false, Default: false},
		},
	},
	{
		Type:        ClientTypeEmail,
		Name:        "Email",
		Description: "SMTP delivery to one or more recipients",
		Fields: []FieldSpec{
			{Key: "smtp_server", Label: "SMTP Server", Kind: FieldText, Required: true, Placeholder: "smtp.gmail.com"},
			{Key: "smtp_port", Label: "SMTP Port", Kind: FieldNumber, Required: true, Default: 587, Min: floatPtr(1), Max: floatPtr(65535)},
			{Key: "username", Label: "Username", Kind: FieldText, Required: true},
			{Key: "password", Label: "Password", Kind: FieldSecret, Required: true},
			{Key: "from_email", Label: "From Address", Kind: FieldText, Required: true},
			{Key: "to_emails", Label: "Recipients", Kind: FieldMultiline, Required: true, Placeholder: "one address per line or comma separated"},
			{Key: "use_tls", Label: "Use STARTTLS", Kind: FieldBoolean, Required: false, Default: true},
		},
	},
	{
		Type:        ClientTypeWebhook,
		Name:        "Webhook",
		Description: "Generic HTTP request with a JSON payload",
		Fields: []FieldSpec{
			{Key: "url", Label: "URL", Kind: FieldURL, Required: true},
			{Key: "method", Label: "HTTP Method", Kind: FieldChoice, Required: false, Default: "POST", Choices: []string{"POST", "PUT", "PATCH"}},
			{Key: "headers", Label: "Extra Headers", Kind: FieldMultiline, Required: false, Placeholder: `{"Authorization": "Bearer ..."}`},
			{Key: "timeout", Label: "Timeout (seconds)", Kind: FieldNumber, Required: false, Default: 30, Min: floatPtr(1), Max: floatPtr(300)},
			{Key: "verify_ssl", Label: "Verify TLS", Kind: FieldBoolean, Required: false, Default: true},
		},
	},
}

var scenarios = []Scenario{
	{Key: "user_login", Name: "User Login", Description: "A user signed in", Default: false},
	{Key: "user_created", Name: "User Created", Description: "A new user account was created", Default: true},
	{Key: "role_changed", Name: "Role Changed", Description: "A user's role assignments changed", Default: true},
	{Key: "system_error", Name: "System Error", Description: "An unhandled server error occurred", Default: true},
	{Key: "config_changed", Name: "Config Changed", Description: "A system config entry was modified", Default: false},
	{Key: "security_alert", Name: "Security Alert", Description: "Suspicious activity was detected", Default: true},
}

// ClientTypes returns the full registry.
func ClientTypes() []ClientTypeInfo {
	return clientTypes
}

func GetClientType(clientType string) (*ClientTypeInfo, bool) {
	for i := range clientTypes {
		if clientTypes[i].Type == clientType {
			return &clientTypes[i], true
		}
	}
	return nil, false
}

// Scenarios returns every dispatch scenario with its default switch.
func Scenarios() []Scenario {
	return scenarios
}

// DefaultSwitches builds the switch map a new client starts with.
func DefaultSwitches() map[string]bool {
	switches := make(map[string]bool, len(scenarios))
	for _, sc := range scenarios {
		switches[sc.Key] = sc.Default
	}
	return switches
}

func IsValidScenario(key string) bool {
	for _, sc := range scenarios {
		if sc.Key == key {
			return true
		}
	}
	return false
}

// ValidateConfig checks a client config against its type's field
// schema. The returned map is empty when the config is valid; an
// unknown type reports a single "type" error.
func ValidateConfig(clientType string, config map[string]interface{}) map[string]string {
	info, ok := GetClientType(clientType)
	if !ok {
		return map[string]string{"type": fmt.Sprintf("unknown client type: %s", clientType)}
	}

	errs := make(map[string]string)
	for _, field := range info.Fields {
		raw, present := config[field.Key]

		if !present || raw == nil || strings.TrimSpace(cast.ToString(raw)) == "" {
			if field.Required {
				errs[field.Key] = fmt.Sprintf("%s is required", field.Label)
			}
			continue
		}

		switch field.Kind {
		case FieldNumber:
			n, err := cast.ToFloat64E(raw)
			if err != nil {
				errs[field.Key] = fmt.Sprintf("%s must be a number", field.Label)
				continue
			}
			if field.Min != nil && n < *field.Min {
				errs[field.Key] = fmt.Sprintf("%s must be at least %v", field.Label, *field.Min)
			}
			if field.Max != nil && n > *field.Max {
				errs[field.Key] = fmt.Sprintf("%s must be at most %v", field.Label, *field.Max)
			}
		case FieldURL:
			u := strings.TrimSpace(cast.ToString(raw))
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				errs[field.Key] = fmt.Sprintf("%s must start with http:// or https://", field.Label)
			}
		case FieldChoice:
			v := cast.ToString(raw)
			found := false
			for _, choice := range field.Choices {
				if v == choice {
					found = true
					break
				}
			}
			if !found {
				errs[field.Key] = fmt.Sprintf("%s must be one of %s", field.Label, strings.Join(field.Choices, ", "))
			}
		}
	}
	return errs
}

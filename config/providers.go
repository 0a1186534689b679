package config

// ZoomConfig contains Zoom server-to-server OAuth configuration.
type ZoomConfig struct {
	AccountID    string `env:"ACCOUNT_ID"    envDefault:""`
	ClientID     string `env:"CLIENT_ID"     envDefault:""`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:""`
	// UserID is the Zoom user meetings are created under.
	UserID string `env:"USER_ID" envDefault:"me"`
}

// Configured reports whether all required Zoom credentials are present.
func (z ZoomConfig) Configured() bool {
	return z.AccountID != "" && z.ClientID != "" && z.ClientSecret != ""
}

// DriveConfig contains Google Drive service-account configuration.
type DriveConfig struct {
	ServiceAccountEmail string `env:"SERVICE_ACCOUNT_EMAIL" envDefault:""`
	// PrivateKey is the PEM-encoded service account key. Literal "\n"
	// sequences are accepted for single-line env values.
	PrivateKey   string `env:"PRIVATE_KEY"    envDefault:""`
	RootFolderID string `env:"ROOT_FOLDER_ID" envDefault:""`
}

// Configured reports whether all required Drive credentials are present.
func (d DriveConfig) Configured() bool {
	return d.ServiceAccountEmail != "" && d.PrivateKey != "" && d.RootFolderID != ""
}

// WhatsAppConfig contains WhatsApp Cloud API configuration.
type WhatsAppConfig struct {
	AccessToken        string `env:"ACCESS_TOKEN"         envDefault:""`
	PhoneNumberID      string `env:"PHONE_NUMBER_ID"      envDefault:""`
	TemplateName       string `env:"TEMPLATE_NAME"        envDefault:""`
	TemplateLanguage   string `env:"TEMPLATE_LANGUAGE"    envDefault:""`
	WebhookVerifyToken string `env:"WEBHOOK_VERIFY_TOKEN" envDefault:""`
	AppSecret          string `env:"APP_SECRET"           envDefault:""`
}

// ConfiguredForOutbound reports whether template sends are possible.
func (w WhatsAppConfig) ConfiguredForOutbound() bool {
	return w.AccessToken != "" && w.PhoneNumberID != "" &&
		w.TemplateName != "" && w.TemplateLanguage != ""
}

// ConfiguredForWebhook reports whether inbound webhooks can be verified.
func (w WhatsAppConfig) ConfiguredForWebhook() bool {
	return w.AccessToken != "" && w.WebhookVerifyToken != "" && w.AppSecret != ""
}

// EmailConfig contains transactional email configuration.
type EmailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"          envDefault:""`
	From         string `env:"NOTIFICATION_EMAIL_FROM" envDefault:""`
}

// Configured reports whether confirmation emails can be sent.
func (e EmailConfig) Configured() bool {
	return e.ResendAPIKey != "" && e.From != ""
}

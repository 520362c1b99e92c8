package config

// PaymentConfig настройки платежного шлюза
type PaymentConfig struct {
	Gateway   string // razorpay или sandbox
	KeyID     string
	KeySecret string
	Currency  string
}

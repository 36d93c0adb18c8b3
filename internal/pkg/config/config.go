package config

import "os"

// Config is loaded once at startup and injected into constructors; nothing
// reads the environment after this point.
type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	// Payment gateway credentials and redirect targets.
	PayPalBaseURL string
	PayPalClient  string
	PayPalSecret  string
	ReturnURL     string
	CancelURL     string
	Currency      string

	// Optional backing services; empty values select in-memory fallbacks.
	DatabaseURL string
	RedisAddr   string
	AMQPURL     string

	// Media host upload endpoint (Cloudinary-style).
	MediaUploadURL string
	MediaPreset    string

	JWTSecret string

	// Bootstrap admin account; without one the authenticated surface is
	// unreachable on a fresh deployment.
	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	return Config{
		ServiceName:    getenvDefault("SERVICE_NAME", "minishop-settlement"),
		Env:            getenvDefault("ENV", "dev"),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		PayPalBaseURL:  getenvDefault("PAYPAL_BASE_URL", "https://api.sandbox.paypal.com"),
		PayPalClient:   os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:   os.Getenv("PAYPAL_CLIENT_SECRET"),
		ReturnURL:      getenvDefault("PAYPAL_RETURN_URL", "http://localhost:5173/shop/paypal-return"),
		CancelURL:      getenvDefault("PAYPAL_CANCEL_URL", "http://localhost:5173/shop/paypal-cancel"),
		Currency:       getenvDefault("CURRENCY", "USD"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		MediaUploadURL: os.Getenv("MEDIA_UPLOAD_URL"),
		MediaPreset:    getenvDefault("MEDIA_UPLOAD_PRESET", "unsigned"),
		JWTSecret:      getenvDefault("JWT_SECRET", "CLIENT_SECRET_KEY"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package config

type Config struct {
	BaseURL  string
	HttpPort int
	Db       struct {
		Dsn         string
		Automigrate bool
	}
	Jwt struct {
		SecretKey string
	}
	Notifications struct {
		Email string
	}
	Smtp struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	FileUploader struct {
		CloudName string
		ApiKey    string
		ApiSecret string
	}
	Provider struct {
		BaseURL   string
		AppID     string
		SecretKey string
	}
	Encryption struct {
		Key string
	}
	Redis struct {
		Addr string
		Db   int
	}
	Workflow struct {
		// RequireAdminSignOff gates the final owner-approved -> verified
		// transition behind a platform admin. Some deployments let an
		// owner approval stand as the final word.
		RequireAdminSignOff bool
	}
	KafkaServers string
}

package git

type AuthorConfig struct {
	Name  string
	Email string
}

type HTTPSAuthConfig struct {
	DefaultUsername string
	DefaultToken    string
}

type AuthConfig struct {
	HTTPS HTTPSAuthConfig
}

type Config struct {
	// Author signs commits. When empty the repository or global git config is used.
	Author AuthorConfig
	Auth   AuthConfig
}

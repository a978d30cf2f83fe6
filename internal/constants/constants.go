package constants

const (
	AppName = "idmsync"

	DefaultConfigPath1 = "/etc/idmsync"
	DefaultConfigPath2 = "$HOME/.idmsync"
)

package entrypoint

import (
	"strings"

	"go.uber.org/zap"
)

// Environment variables read by the entrypoint.
const (
	EnvAWSMetadataServiceURL = "AWS_METADATA_SERVICE_URL"
	EnvAWSAccessKeyID        = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey    = "AWS_SECRET_ACCESS_KEY"
	EnvAWSSessionToken       = "AWS_SESSION_TOKEN"
	EnvS3EndpointURL         = "AWS_S3_ENDPOINT_URL"
	EnvS3BucketRegion        = "AWS_S3_BUCKET_REGION"
	EnvS3EnvFileObjectPath   = "AWS_S3_ENV_FILE_OBJECT_PATH"
	EnvFetchTimeout          = "ENTRYPOINT_FETCH_TIMEOUT"

	EnvBindInterface        = "CONSUL_BIND_INTERFACE"
	EnvClientInterface      = "CONSUL_CLIENT_INTERFACE"
	EnvClientAddress        = "CONSUL_CLIENT_ADDRESS"
	EnvEnableUI             = "CONSUL_ENABLE_UI"
	EnvLocalConfiguration   = "CONSUL_LOCAL_CONFIGURATION"
	EnvEC2AutoJoinTagKey    = "CONSUL_EC2_AUTO_JOIN_TAG_KEY"
	EnvEC2AutoJoinTagValue  = "CONSUL_EC2_AUTO_JOIN_TAG_VALUE"
	EnvServerAddresses      = "CONSUL_SERVER_ADDRESSES"
	EnvExpectedServers      = "CONSUL_EXPECTED_SERVERS"
	EnvAllowPrivilegedPorts = "CONSUL_ALLOW_PRIVILEGED_PORTS"
	EnvDisablePermMgmt      = "CONSUL_DISABLE_PERM_MGMT"
)

// Config is the immutable snapshot of every setting the pipeline needs,
// resolved once from the effective environment. An empty string field means
// the variable was not configured.
type Config struct {
	BindInterface      string
	ClientInterface    string
	ClientAddress      string
	EnableUI           bool
	LocalConfiguration string

	EC2AutoJoinTagKey   string
	EC2AutoJoinTagValue string
	ServerAddresses     []string
	ExpectedServers     string

	AllowPrivilegedPorts        bool
	DisablePermissionManagement bool
}

// IsYes is the single truthiness rule of the entrypoint: only the exact,
// case sensitive string "yes" is true.
func IsYes(value string) bool {
	return value == "yes"
}

// LoadConfig resolves the configuration snapshot from env. Variables set to
// the empty string are treated like unset ones.
func LoadConfig(env Environment) *Config {
	config := &Config{
		BindInterface:               lookup(env, EnvBindInterface),
		ClientInterface:             lookup(env, EnvClientInterface),
		ClientAddress:               lookup(env, EnvClientAddress),
		EnableUI:                    IsYes(lookup(env, EnvEnableUI)),
		LocalConfiguration:          lookup(env, EnvLocalConfiguration),
		EC2AutoJoinTagKey:           lookup(env, EnvEC2AutoJoinTagKey),
		EC2AutoJoinTagValue:         lookup(env, EnvEC2AutoJoinTagValue),
		ServerAddresses:             splitList(lookup(env, EnvServerAddresses)),
		ExpectedServers:             strings.TrimSpace(lookup(env, EnvExpectedServers)),
		AllowPrivilegedPorts:        IsYes(lookup(env, EnvAllowPrivilegedPorts)),
		DisablePermissionManagement: IsYes(lookup(env, EnvDisablePermMgmt)),
	}

	zlog.Debug("loaded config",
		zap.String("bind_interface", config.BindInterface),
		zap.String("client_interface", config.ClientInterface),
		zap.String("client_address", config.ClientAddress),
		zap.Bool("enable_ui", config.EnableUI),
		zap.Bool("local_configuration", config.LocalConfiguration != ""),
		zap.String("ec2_tag_key", config.EC2AutoJoinTagKey),
		zap.String("ec2_tag_value", config.EC2AutoJoinTagValue),
		zap.Strings("server_addresses", config.ServerAddresses),
		zap.String("expected_servers", config.ExpectedServers),
		zap.Bool("allow_privileged_ports", config.AllowPrivilegedPorts),
		zap.Bool("disable_perm_mgmt", config.DisablePermissionManagement))

	return config
}

func lookup(env Environment, key string) string {
	value, _ := env.Lookup(key)
	return value
}

// splitList splits a comma separated list, trimming entries and dropping
// empty ones.
func splitList(value string) []string {
	if value == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

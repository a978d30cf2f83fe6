package config

import (
	"errors"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/medunigraz/idmsync/internal/errs"
)

var (
	ErrConfigurationValuesError = errors.New("configuration value error")
	ErrNonDefinedTaskType       = errors.New("task type is unknown")
	ErrRepeatedTaskType         = errors.New("task type is specified more than once")
	ErrGroupNameLengthTooSmall  = errors.New("LDAP group name length leaves no room for the organization prefix")
	ErrRegistryEmptyBaseURL     = errors.New("registry base URL must be specified")
)

// Config holds all application configuration parameters
type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash"`

	Database         Database   `yaml:"database"`
	DatabaseReplicas []Database `yaml:"databaseReplicas"`
	Scheduler        Scheduler  `yaml:"scheduler"`
	HTTP             HTTPServer `yaml:"http"`

	LDAP     LDAP     `yaml:"ldap"`
	Registry Registry `yaml:"registry"`
	SMTP     SMTP     `yaml:"smtp"`
	Jira     Jira     `yaml:"jira"`

	Provisioning Provisioning `yaml:"provisioning"`
}

func (c *Config) Validate() error {
	err := c.Scheduler.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	err = c.LDAP.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	err = c.Registry.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	return nil
}

// Scheduler holds a scheduler config
type Scheduler struct {
	TaskQueue Redis
	Tasks     []Task
}

func (s *Scheduler) Validate() error {
	checkedTasks := make(map[string]struct{}, len(s.Tasks))
	for _, task := range s.Tasks {
		_, found := DefinedTasks[task.TaskType]
		if !found {
			return ErrNonDefinedTaskType
		}

		_, found = checkedTasks[task.TaskType]
		if found {
			return ErrRepeatedTaskType
		}

		checkedTasks[task.TaskType] = struct{}{}
	}

	return nil
}

// Task holds a task config
type Task struct {
	Cronspec string
	TaskType string
	Retries  int
}

// Redis holds Redis client config
type Redis struct {
	Host      commoncfg.SourceRef `yaml:"host"`
	Port      string              `yaml:"port"`
	ACL       RedisACL            `yaml:"acl"`
	SecretRef commoncfg.SecretRef
}

type RedisACL struct {
	Enabled  bool                `yaml:"enabled"`
	Password commoncfg.SourceRef `yaml:"password"`
	Username commoncfg.SourceRef `yaml:"username"`
}

// Database holds database config
type Database struct {
	Name       string              `yaml:"name"`
	Port       string              `yaml:"port"`
	Host       commoncfg.SourceRef `yaml:"host"`
	User       commoncfg.SourceRef `yaml:"user"`
	Secret     commoncfg.SourceRef `yaml:"secret"`
	Migrations string              `yaml:"migrations" default:"migrations"`
}

// HTTPServer holds the admin API server config
type HTTPServer struct {
	Address         string        `yaml:"address" default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s"`
}

// LDAP holds directory client defaults shared by all targets.
type LDAP struct {
	PageSize        uint32        `yaml:"pageSize" default:"1000"`
	GroupNameLength int           `yaml:"groupNameLength" default:"64"`
	DialTimeout     time.Duration `yaml:"dialTimeout" default:"10s"`
	DialRetries     uint          `yaml:"dialRetries" default:"3"`
}

// MinGroupNameLength keeps room for "<orgID>-" plus a few slug characters.
const MinGroupNameLength = 16

func (l *LDAP) Validate() error {
	if l.GroupNameLength < MinGroupNameLength {
		return ErrGroupNameLengthTooSmall
	}

	return nil
}

// Registry holds the upstream organization registry client config.
type Registry struct {
	BaseURL  string              `yaml:"baseURL"`
	Token    commoncfg.SourceRef `yaml:"token"`
	PageSize int                 `yaml:"pageSize" default:"100"`
	Timeout  time.Duration       `yaml:"timeout" default:"30s"`
}

func (r *Registry) Validate() error {
	if r.BaseURL == "" {
		return ErrRegistryEmptyBaseURL
	}

	return nil
}

// SMTP holds the mail responder transport config.
type SMTP struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port" default:"587"`
	From     string              `yaml:"from"`
	Username commoncfg.SourceRef `yaml:"username"`
	Password commoncfg.SourceRef `yaml:"password"`
}

// Jira holds the Jira responder client config.
type Jira struct {
	BaseURL  string              `yaml:"baseURL"`
	Username commoncfg.SourceRef `yaml:"username"`
	Token    commoncfg.SourceRef `yaml:"token"`
}

// Provisioning config of application
type Provisioning struct {
	InitTarget InitTargetConfig `yaml:"initTarget"`
}

// InitTargetConfig seeds one LDAP target at startup so a fresh deployment
// can sync without going through the admin API first.
type InitTargetConfig struct {
	Enabled      bool                `yaml:"enabled"`
	URL          string              `yaml:"url"`
	BindDN       string              `yaml:"bindDN"`
	BindPassword commoncfg.SourceRef `yaml:"bindPassword"`
	GroupBase    string              `yaml:"groupBase"`
	UserBase     string              `yaml:"userBase"`
}

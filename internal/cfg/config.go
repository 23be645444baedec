package cfg

import (
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml"
)

const (
	DefMaxPollAttempts     = 8
	DefPollBackoffSeconds  = 15
	DefInitialDelaySeconds = 5
)

type Config struct {
	RepositoryOwner     string `toml:"repository_owner"`
	Repository          string `toml:"repository"`
	TargetBranch        string `toml:"target_branch"`
	AgentIdentifier     string `toml:"agent_identifier"`
	GithubAPIToken      string `toml:"github_api_token"`
	FilterQuery         string `toml:"filter_query"`
	GitDir              string `toml:"git_dir"`
	GitRemote           string `toml:"git_remote"`
	AutoMergeMode       bool   `toml:"auto_merge_mode"`
	MaxPollAttempts     int    `toml:"max_poll_attempts"`
	PollBackoffSeconds  int    `toml:"poll_backoff_seconds"`
	InitialDelaySeconds int    `toml:"initial_delay_seconds"`
	LogFormat           string `toml:"log_format"`
	LogLevel            string `toml:"log_level"`
	LogTimeKey          string `toml:"log_time_key"`
}

func Load(reader io.Reader) (*Config, error) {
	result := Config{
		GitRemote:           "origin",
		MaxPollAttempts:     DefMaxPollAttempts,
		PollBackoffSeconds:  DefPollBackoffSeconds,
		InitialDelaySeconds: DefInitialDelaySeconds,
		LogFormat:           "logfmt",
		LogLevel:            "info",
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Validate returns an error when a required option is unset or an option
// value is out of range.
func (r *Config) Validate() error {
	if r.RepositoryOwner == "" {
		return errors.New("repository_owner is unset")
	}

	if r.Repository == "" {
		return errors.New("repository is unset")
	}

	if r.TargetBranch == "" {
		return errors.New("target_branch is unset")
	}

	if r.AgentIdentifier == "" {
		return errors.New("agent_identifier is unset")
	}

	if r.MaxPollAttempts <= 0 {
		return fmt.Errorf("max_poll_attempts is %d, must be >0", r.MaxPollAttempts)
	}

	if r.PollBackoffSeconds < 0 {
		return fmt.Errorf("poll_backoff_seconds is %d, must be >=0", r.PollBackoffSeconds)
	}

	if r.InitialDelaySeconds < 0 {
		return fmt.Errorf("initial_delay_seconds is %d, must be >=0", r.InitialDelaySeconds)
	}

	return nil
}

func (r *Config) Marshal(writer io.Writer) error {
	return toml.NewEncoder(writer).Encode(r)
}
